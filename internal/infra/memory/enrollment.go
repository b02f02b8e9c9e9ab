package memory

import "context"

// StaticEnrollment answers membership checks from a fixed course -> users map.
type StaticEnrollment struct {
	members map[string]map[string]struct{}
}

func NewStaticEnrollment(courses map[string][]string) *StaticEnrollment {
	members := make(map[string]map[string]struct{}, len(courses))
	for courseID, users := range courses {
		set := make(map[string]struct{}, len(users))
		for _, userID := range users {
			set[userID] = struct{}{}
		}
		members[courseID] = set
	}
	return &StaticEnrollment{members: members}
}

func (e *StaticEnrollment) IsEnrolled(_ context.Context, courseID, userID string) (bool, error) {
	_, ok := e.members[courseID][userID]
	return ok, nil
}

// OpenEnrollment admits everyone; the demo fallback when no membership
// backend is configured.
type OpenEnrollment struct{}

func (OpenEnrollment) IsEnrolled(context.Context, string, string) (bool, error) {
	return true, nil
}
