package testutil

import (
	"time"

	"brawler/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(id, username string) *models.User {
	return &models.User{
		ID:        id,
		Username:  username,
		Balance:   100,
		CreatedAt: time.Now(),
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(id, username string, balance int64) *models.User {
	user := CreateTestUser(id, username)
	user.Balance = balance
	return user
}

// CreateTestFighter creates an approved, fight-ready fighter
func CreateTestFighter(id, name string) *models.Fighter {
	return &models.Fighter{
		ID:          id,
		Name:        name,
		Description: "A test fighter",
		Personality: "stoic",
		Alignment:   "neutral",
		Popularity:  1,
		HP:          40,
		Agility:     10,
		Power:       10,
		Status:      models.FighterStatusActive,
		Approved:    true,
		Titles:      []string{},
	}
}

// CreateTestFighterWithRecord creates a fighter with a specific win/loss record
func CreateTestFighterWithRecord(id, name string, wins, losses int) *models.Fighter {
	fighter := CreateTestFighter(id, name)
	fighter.Wins = wins
	fighter.Losses = losses
	return fighter
}

// CreateTestPendingFighter creates an unapproved submission awaiting moderation
func CreateTestPendingFighter(id, name, creatorID string) *models.Fighter {
	fighter := CreateTestFighter(id, name)
	fighter.Approved = false
	fighter.HP = 0
	fighter.Agility = 0
	fighter.Power = 0
	fighter.CreatorID = &creatorID
	return fighter
}
