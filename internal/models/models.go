package models

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Organization{},
		&OrganizationMember{},
		&Team{},
		&Athlete{},
		&Measurement{},
		&Invitation{},
	}
}
