package model_test

import (
	"testing"
	"time"

	"github.com/architeacher/specifications/internal/domain/model"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Parallel()

	id := model.NewUserID()
	born := time.Date(1990, 3, 4, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600))

	cases := []struct {
		name        string
		id          model.UserID
		userName    string
		gender      model.Gender
		expectedErr error
	}{
		{name: "valid user", id: id, userName: "Hellfire", gender: model.GenderMale},
		{name: "multi flag gender", id: id, userName: "Both", gender: model.GenderAny},
		{name: "empty name", id: id, userName: "", gender: model.GenderMale, expectedErr: model.ErrInvalidUserName},
		{name: "zero id", id: model.UserID{}, userName: "Nobody", gender: model.GenderMale, expectedErr: model.ErrInvalidUserID},
		{name: "unknown flag", id: id, userName: "Odd", gender: model.Gender(8), expectedErr: model.ErrInvalidGender},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			user, err := model.NewUser(tc.id, tc.userName, born, tc.gender)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				require.Equal(t, model.User{}, user)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.id, user.ID)
			require.Equal(t, tc.userName, user.Name)
			require.Equal(t, time.Date(1990, 3, 5, 0, 0, 0, 0, time.UTC), user.DateOfBirth)
			require.Equal(t, tc.gender, user.Gender)
		})
	}
}

func TestParseUserID(t *testing.T) {
	t.Parallel()

	id := model.NewUserID()

	parsed, err := model.ParseUserID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = model.ParseUserID("not-a-uuid")
	require.Error(t, err)
}

func TestGender(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input    string
		expected model.Gender
		str      string
	}{
		{input: "male", expected: model.GenderMale, str: "male"},
		{input: "Female", expected: model.GenderFemale, str: "female"},
		{input: "male|female", expected: model.GenderAny, str: "male|female"},
		{input: " female | male ", expected: model.GenderAny, str: "male|female"},
		{input: "", expected: model.GenderNone, str: "none"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			g, err := model.ParseGender(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, g)
			require.Equal(t, tc.str, g.String())
		})
	}

	_, err := model.ParseGender("male|robot")
	require.ErrorIs(t, err, model.ErrInvalidGender)
}

func TestSampleUsers(t *testing.T) {
	t.Parallel()

	users := model.SampleUsers()
	require.Len(t, users, 5)

	ids := make(map[model.UserID]struct{}, len(users))
	for _, u := range users {
		ids[u.ID] = struct{}{}
	}

	require.Len(t, ids, 5)
}
