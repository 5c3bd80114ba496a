// Package profile is a stand-in for the identity provider. It serves every
// owner the configured defaults; deployments with a real identity service
// replace it behind the core.Profiles port.
package profile

import (
	"context"

	"taskflow/core"
)

type Static struct {
	skills            []string
	workloadThreshold int
}

func NewStatic(skills []string, workloadThreshold int) *Static {
	return &Static{skills: skills, workloadThreshold: workloadThreshold}
}

func (s *Static) Get(_ context.Context, userID string) (core.Profile, error) {
	return core.Profile{
		UserID:            userID,
		DisplayName:       userID,
		Skills:            s.skills,
		WorkloadThreshold: s.workloadThreshold,
	}, nil
}
