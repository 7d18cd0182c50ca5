/*
Package healthcalc implements the biometric calculations behind the planner:
BMR, BMI, activity-adjusted maintenance calories and goal-adjusted targets.
Everything here is pure; a Snapshot is recomputed from a UserProfile on every read.
*/
package healthcalc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile is wrapped by every validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

type ActivityLevel string

const (
	Sedentary        ActivityLevel = "Sedentary"
	LightlyActive    ActivityLevel = "Lightly Active"
	ModeratelyActive ActivityLevel = "Moderately Active"
	VeryActive       ActivityLevel = "Very Active"
	ExtraActive      ActivityLevel = "Extra Active"
)

type Goal string

const (
	GoalWeightLoss          Goal = "Weight Loss"
	GoalWeightGain          Goal = "Weight Gain"
	GoalMuscleGain          Goal = "Muscle Gain"
	GoalMaintenance         Goal = "Maintenance"
	GoalAthleticPerformance Goal = "Athletic Performance"
)

type DietType string

const (
	DietStandard      DietType = "Standard"
	DietVegetarian    DietType = "Vegetarian"
	DietVegan         DietType = "Vegan"
	DietKeto          DietType = "Keto"
	DietPaleo         DietType = "Paleo"
	DietMediterranean DietType = "Mediterranean"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// AllergyNone is the explicit "no allergies" tag.
const AllergyNone = "None"

// Field ranges accepted for a profile.
const (
	MinAge      = 15
	MaxAge      = 100
	MinHeightCm = 100
	MaxHeightCm = 250
	MinWeightKg = 30
	MaxWeightKg = 200
	MinWeek     = 1
	MaxWeek     = 52
)

var (
	Genders      = []Gender{GenderMale, GenderFemale, GenderOther}
	Goals        = []Goal{GoalWeightLoss, GoalWeightGain, GoalMuscleGain, GoalMaintenance, GoalAthleticPerformance}
	DietTypes    = []DietType{DietStandard, DietVegetarian, DietVegan, DietKeto, DietPaleo, DietMediterranean}
	Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
	Allergies    = []string{"Nuts", "Dairy", "Gluten", "Shellfish", "Eggs", "Soy", AllergyNone}

	ActivityLevels = []ActivityLevel{Sedentary, LightlyActive, ModeratelyActive, VeryActive, ExtraActive}
)

// UserProfile is the biometric and preference data a plan is built from.
type UserProfile struct {
	Age           int           `json:"age"`
	Gender        Gender        `json:"gender"`
	HeightCm      int           `json:"height_cm"`
	WeightKg      int           `json:"weight_kg"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
	DietType      DietType      `json:"diet_type"`
	Allergies     []string      `json:"allergies"`
	CurrentWeek   int           `json:"current_week"`
	Difficulty    Difficulty    `json:"difficulty"`
}

// DefaultProfile is the profile requests are merged over when fields are omitted.
func DefaultProfile() UserProfile {
	return UserProfile{
		Age:           25,
		Gender:        GenderMale,
		HeightCm:      170,
		WeightKg:      70,
		ActivityLevel: Sedentary,
		Goal:          GoalWeightLoss,
		DietType:      DietStandard,
		Allergies:     []string{},
		CurrentWeek:   1,
		Difficulty:    DifficultyBeginner,
	}
}

// Validate checks ranges and enumerations. All fields are mandatory.
func (p UserProfile) Validate() error {
	var problems []string

	if p.Age < MinAge || p.Age > MaxAge {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	}
	if p.HeightCm < MinHeightCm || p.HeightCm > MaxHeightCm {
		problems = append(problems, fmt.Sprintf("height_cm must be between %d and %d", MinHeightCm, MaxHeightCm))
	}
	if p.WeightKg < MinWeightKg || p.WeightKg > MaxWeightKg {
		problems = append(problems, fmt.Sprintf("weight_kg must be between %d and %d", MinWeightKg, MaxWeightKg))
	}
	if p.CurrentWeek < MinWeek || p.CurrentWeek > MaxWeek {
		problems = append(problems, fmt.Sprintf("current_week must be between %d and %d", MinWeek, MaxWeek))
	}
	if !contains(Genders, p.Gender) {
		problems = append(problems, fmt.Sprintf("unknown gender %q", p.Gender))
	}
	if _, ok := activityMultipliers[p.ActivityLevel]; !ok {
		problems = append(problems, fmt.Sprintf("unknown activity_level %q", p.ActivityLevel))
	}
	if _, ok := goalOffsets[p.Goal]; !ok {
		problems = append(problems, fmt.Sprintf("unknown goal %q", p.Goal))
	}
	if !contains(DietTypes, p.DietType) {
		problems = append(problems, fmt.Sprintf("unknown diet_type %q", p.DietType))
	}
	if !contains(Difficulties, p.Difficulty) {
		problems = append(problems, fmt.Sprintf("unknown difficulty %q", p.Difficulty))
	}
	for _, a := range p.Allergies {
		if !contains(Allergies, a) {
			problems = append(problems, fmt.Sprintf("unknown allergy %q", a))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, strings.Join(problems, "; "))
	}
	return nil
}

// Normalized returns a copy with the allergy set cleaned up.
func (p UserProfile) Normalized() UserProfile {
	p.Allergies = NormalizeAllergies(p.Allergies)
	return p
}

// AllergyList renders the allergy set for prompts, "None" when empty.
func (p UserProfile) AllergyList() string {
	tags := NormalizeAllergies(p.Allergies)
	if len(tags) == 0 {
		return AllergyNone
	}
	return strings.Join(tags, ", ")
}

// NormalizeAllergies de-duplicates tags keeping first-seen order. The "None" tag is
// dropped, so a set holding only "None" becomes empty.
func NormalizeAllergies(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || t == AllergyNone || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func contains[T comparable](values []T, v T) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
