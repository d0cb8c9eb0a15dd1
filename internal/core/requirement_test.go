package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConflictsWith_EmptyIntersectionIsAConflict(t *testing.T) {
	a, err := ParseRequirement("lib<2.0.0")
	require.NoError(t, err)
	b, err := ParseRequirement("lib>=2.0.0")
	require.NoError(t, err)

	require.True(t, ConflictsWith(a, b))
	require.True(t, ConflictsWith(b, a))
}

func TestConflictsWith_OverlappingRangesDoNotConflict(t *testing.T) {
	a, err := ParseRequirement("lib<2.0.0")
	require.NoError(t, err)
	b, err := ParseRequirement("lib>=1.0.0")
	require.NoError(t, err)

	require.False(t, ConflictsWith(a, b))
}

func TestConflictsWith_WeakRequirementNeverConflicts(t *testing.T) {
	a, err := ParseRequirement("~lib<2.0.0")
	require.NoError(t, err)
	b, err := ParseRequirement("lib>=2.0.0")
	require.NoError(t, err)

	require.False(t, ConflictsWith(a, b))
	require.False(t, ConflictsWith(b, a))
}

func TestConflictsWith_DifferentNamesNeverConflict(t *testing.T) {
	a, err := ParseRequirement("lib<2.0.0")
	require.NoError(t, err)
	b, err := ParseRequirement("other>=2.0.0")
	require.NoError(t, err)

	require.False(t, ConflictsWith(a, b))
}

func TestConflictsWith_SystemRequirementsNeverConflict(t *testing.T) {
	a, err := ParseRequirement("gcc@apt:>=9")
	require.NoError(t, err)
	b, err := ParseRequirement("gcc@apt:<9")
	require.NoError(t, err)

	require.False(t, ConflictsWith(a, b))
}
