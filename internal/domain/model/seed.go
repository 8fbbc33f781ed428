package model

import "time"

// SampleUsers returns the demo data set with fresh IDs.
func SampleUsers() []User {
	return []User{
		MustNewUser(NewUserID(), "Hellfire", time.Date(1974, 10, 16, 0, 0, 0, 0, time.UTC), GenderMale),
		MustNewUser(NewUserID(), "LittleLady", time.Date(1975, 11, 11, 0, 0, 0, 0, time.UTC), GenderFemale),
		MustNewUser(NewUserID(), "ShyGuy", time.Date(2007, 10, 15, 0, 0, 0, 0, time.UTC), GenderMale),
		MustNewUser(NewUserID(), "Pipsqueak", time.Date(2008, 5, 19, 0, 0, 0, 0, time.UTC), GenderFemale),
		MustNewUser(NewUserID(), "Laforge", time.Date(2011, 9, 14, 0, 0, 0, 0, time.UTC), GenderMale),
	}
}
