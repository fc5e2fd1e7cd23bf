package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apogee-eng/apogee/internal/packages"
)

func TestBehindChannel(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status packages.RepoStatus
		behind bool
	}{
		{
			name:   "up to date",
			status: packages.RepoStatus{LastTag: "1.2.0", Flight: "1.2.0", Matlab: "1.2.0"},
			behind: false,
		},
		{
			name:   "flight lags",
			status: packages.RepoStatus{LastTag: "1.2.0", Flight: "1.1.0", Matlab: "1.2.0"},
			behind: true,
		},
		{
			name:   "matlab only",
			status: packages.RepoStatus{LastTag: "1.2.0", Matlab: "1.0.0"},
			behind: true,
		},
		{
			name:   "not shipped",
			status: packages.RepoStatus{LastTag: "1.2.0"},
			behind: false,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.behind, behindChannel(&tt.status))
		})
	}
}
