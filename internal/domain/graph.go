package domain

import "github.com/google/uuid"

// WouldCreateCycle reports whether inserting the edge task -> dependsOn into
// the given dependency edges would make task reachable from dependsOn, i.e.
// close a cycle. The walk tracks visited nodes so it terminates on diamond
// shapes and on any cycle already present in the snapshot.
func WouldCreateCycle(edges []TaskDependency, taskID, dependsOnID uuid.UUID) bool {
	if taskID == dependsOnID {
		return true
	}

	adjacent := make(map[uuid.UUID][]uuid.UUID, len(edges))
	for _, e := range edges {
		adjacent[e.TaskID] = append(adjacent[e.TaskID], e.DependsOnID)
	}

	visited := make(map[uuid.UUID]bool)
	var reaches func(from uuid.UUID) bool
	reaches = func(from uuid.UUID) bool {
		if visited[from] {
			return false
		}
		visited[from] = true
		for _, next := range adjacent[from] {
			if next == taskID || reaches(next) {
				return true
			}
		}
		return false
	}

	return reaches(dependsOnID)
}
