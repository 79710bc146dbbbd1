package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/member-console/internal/models"
)

func TestDiffReturnsOnlyChangedFields(t *testing.T) {
	original := models.MemberProfile{FirstName: "Ali", LastName: "Baba", Email: "ali@example.com", Grade: "5"}
	updated := original
	updated.Email = "ali.baba@example.com"
	updated.IsStudent = true

	changes, err := Diff(original, updated)
	require.NoError(t, err)
	assert.Equal(t, models.PartialUpdate{"email": "ali.baba@example.com", "isStudent": true}, changes)
}

func TestDiffIdenticalProfilesIsEmpty(t *testing.T) {
	profile := models.MemberProfile{FirstName: "Ali"}
	changes, err := Diff(profile, profile)
	require.NoError(t, err)
	assert.True(t, changes.Empty())
}

func TestDiffClearedField(t *testing.T) {
	original := models.MemberProfile{FirstName: "Ali", Section: "B"}
	updated := models.MemberProfile{FirstName: "Ali"}

	changes, err := Diff(original, updated)
	require.NoError(t, err)
	assert.Equal(t, models.PartialUpdate{"section": ""}, changes)
}

func TestTopLevelKey(t *testing.T) {
	assert.Equal(t, "email", topLevelKey("/email"))
	assert.Equal(t, "healthcareTeam", topLevelKey("/healthcareTeam/navigator/id"))
	assert.Equal(t, "a/b", topLevelKey("/a~1b"))
	assert.Equal(t, "a~b", topLevelKey("/a~0b/c"))
	assert.Equal(t, "", topLevelKey(""))
}
