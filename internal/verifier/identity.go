package verifier

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

var firstNames = []string{
	"Emma", "Liam", "Olivia", "Noah", "Ava",
	"Ethan", "Sophia", "Mason", "Isabella", "Lucas",
	"Mia", "Logan", "Charlotte", "James", "Amelia",
	"Aiden", "Harper", "Elijah", "Evelyn", "Benjamin",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones",
	"Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
	"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin",
}

// Applicant is the generated identity attached to a document submission.
type Applicant struct {
	FirstName string
	LastName  string
	Email     string
	BirthDate string
}

// GenerateApplicant creates a random applicant identity with a plausible
// student birth date and a matching mailbox.
func GenerateApplicant() (*Applicant, error) {
	firstIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(firstNames))))
	if err != nil {
		return nil, fmt.Errorf("failed to pick first name: %w", err)
	}

	lastIdx, err := rand.Int(rand.Reader, big.NewInt(int64(len(lastNames))))
	if err != nil {
		return nil, fmt.Errorf("failed to pick last name: %w", err)
	}

	// Birth year between 1998 and 2006
	yearOff, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return nil, fmt.Errorf("failed to pick birth year: %w", err)
	}
	month, err := rand.Int(rand.Reader, big.NewInt(12))
	if err != nil {
		return nil, fmt.Errorf("failed to pick birth month: %w", err)
	}
	day, err := rand.Int(rand.Reader, big.NewInt(28))
	if err != nil {
		return nil, fmt.Errorf("failed to pick birth day: %w", err)
	}

	suffix, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return nil, fmt.Errorf("failed to pick mail suffix: %w", err)
	}

	first := firstNames[firstIdx.Int64()]
	last := lastNames[lastIdx.Int64()]

	return &Applicant{
		FirstName: first,
		LastName:  last,
		Email: fmt.Sprintf("%s.%s%04d@gmail.com",
			strings.ToLower(first), strings.ToLower(last), suffix.Int64()),
		BirthDate: fmt.Sprintf("%d-%02d-%02d",
			1998+yearOff.Int64(), month.Int64()+1, day.Int64()+1),
	}, nil
}
