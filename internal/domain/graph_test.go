package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func edge(taskID, dependsOnID uuid.UUID) TaskDependency {
	return TaskDependency{ID: uuid.New(), TaskID: taskID, DependsOnID: dependsOnID}
}

func TestWouldCreateCycle(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	t.Run("no edges", func(t *testing.T) {
		assert.False(t, WouldCreateCycle(nil, b, a))
	})

	t.Run("self edge", func(t *testing.T) {
		assert.True(t, WouldCreateCycle(nil, a, a))
	})

	t.Run("direct back edge", func(t *testing.T) {
		edges := []TaskDependency{edge(b, a)}
		assert.True(t, WouldCreateCycle(edges, a, b))
	})

	t.Run("transitive back edge", func(t *testing.T) {
		// c -> b -> a; adding a -> c closes the loop.
		edges := []TaskDependency{edge(b, a), edge(c, b)}
		assert.True(t, WouldCreateCycle(edges, a, c))
	})

	t.Run("forward edge is fine", func(t *testing.T) {
		edges := []TaskDependency{edge(b, a), edge(c, b)}
		assert.False(t, WouldCreateCycle(edges, d, a))
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		// b and c both depend on a; d closing the diamond over both
		// paths stays acyclic and the walk must terminate.
		edges := []TaskDependency{edge(b, a), edge(c, a), edge(d, b)}
		assert.False(t, WouldCreateCycle(edges, d, c))
	})

	t.Run("existing cycle in snapshot terminates", func(t *testing.T) {
		edges := []TaskDependency{edge(a, b), edge(b, a)}
		assert.False(t, WouldCreateCycle(edges, c, a))
	})
}
