package healthcalc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseProfile() UserProfile {
	return UserProfile{
		Age:           25,
		Gender:        GenderMale,
		HeightCm:      170,
		WeightKg:      70,
		ActivityLevel: Sedentary,
		Goal:          GoalMaintenance,
		DietType:      DietStandard,
		Allergies:     []string{},
		CurrentWeek:   1,
		Difficulty:    DifficultyBeginner,
	}
}

func TestBMR(t *testing.T) {
	tests := []struct {
		name   string
		age    int
		gender Gender
		height float64
		weight float64
		want   float64
	}{
		{"male", 25, GenderMale, 170, 70, 1700.057},
		{"female", 30, GenderFemale, 160, 60, 1368.193},
		{"other uses female equation", 30, GenderOther, 160, 60, 1368.193},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BMR(tt.age, tt.gender, tt.height, tt.weight), 1e-6)
		})
	}
}

func TestBMRIsDeterministic(t *testing.T) {
	first := BMR(40, GenderFemale, 165, 72)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BMR(40, GenderFemale, 165, 72))
	}
}

func TestBMIPositiveAcrossValidRange(t *testing.T) {
	for h := MinHeightCm; h <= MaxHeightCm; h += 10 {
		for w := MinWeightKg; w <= MaxWeightKg; w += 10 {
			bmi := BMI(float64(w), float64(h))
			assert.Greater(t, bmi, 0.0)
			m := float64(h) / 100
			assert.InDelta(t, float64(w)/(m*m), bmi, 1e-9)
		}
	}
}

func TestComputeReferenceProfile(t *testing.T) {
	snap, err := Compute(baseProfile())
	require.NoError(t, err)

	assert.InDelta(t, 1700.057, snap.BMR, 1e-6)
	assert.InDelta(t, 2040.0684, snap.MaintenanceCalories, 1e-6)
	assert.InDelta(t, snap.MaintenanceCalories, snap.TargetCalories, 1e-9)
	assert.InDelta(t, 24.2214, snap.BMI, 1e-4)
	assert.Equal(t, "Normal", snap.BMICategory)
	assert.Equal(t, MacroTargets{ProteinG: 112, CarbsG: 229, FatG: 56, FiberG: 25}, snap.Macros)
	assert.InDelta(t, 2450.0, snap.WaterIntakeMl, 1e-9)
}

func TestTargetIsMaintenancePlusOffset(t *testing.T) {
	offsets := map[Goal]float64{
		GoalWeightLoss:          -500,
		GoalWeightGain:          500,
		GoalMuscleGain:          300,
		GoalMaintenance:         0,
		GoalAthleticPerformance: 200,
	}

	for goal, off := range offsets {
		t.Run(string(goal), func(t *testing.T) {
			p := baseProfile()
			p.Goal = goal
			snap, err := Compute(p)
			require.NoError(t, err)
			assert.Equal(t, off, snap.GoalOffset)
			assert.Equal(t, snap.MaintenanceCalories+off, snap.TargetCalories)
		})
	}
}

func TestMaintenanceUsesActivityMultiplier(t *testing.T) {
	want := map[ActivityLevel]float64{
		Sedentary:        1.2,
		LightlyActive:    1.375,
		ModeratelyActive: 1.55,
		VeryActive:       1.725,
		ExtraActive:      1.9,
	}
	for level, mult := range want {
		got, err := MaintenanceCalories(1000, level)
		require.NoError(t, err)
		assert.InDelta(t, 1000*mult, got, 1e-9, level)
	}

	_, err := MaintenanceCalories(1000, "Couch Potato")
	assert.True(t, errors.Is(err, ErrInvalidProfile))
}

func TestClassifyBMI(t *testing.T) {
	tests := []struct {
		bmi  float64
		want string
	}{
		{17.9, "Underweight"},
		{18.5, "Normal"},
		{25.0, "Normal"},
		{25.1, "Overweight"},
	}
	for _, tt := range tests {
		got, rec := ClassifyBMI(tt.bmi)
		assert.Equal(t, tt.want, got)
		assert.NotEmpty(t, rec)
	}
}

func TestComputeRejectsInvalidProfile(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*UserProfile)
		field  string
	}{
		{"age too low", func(p *UserProfile) { p.Age = 14 }, "age"},
		{"age too high", func(p *UserProfile) { p.Age = 101 }, "age"},
		{"height", func(p *UserProfile) { p.HeightCm = 99 }, "height_cm"},
		{"weight", func(p *UserProfile) { p.WeightKg = 201 }, "weight_kg"},
		{"week", func(p *UserProfile) { p.CurrentWeek = 0 }, "current_week"},
		{"gender", func(p *UserProfile) { p.Gender = "male" }, "gender"},
		{"activity", func(p *UserProfile) { p.ActivityLevel = "" }, "activity_level"},
		{"goal", func(p *UserProfile) { p.Goal = "Bulk" }, "goal"},
		{"diet", func(p *UserProfile) { p.DietType = "Carnivore" }, "diet_type"},
		{"difficulty", func(p *UserProfile) { p.Difficulty = "Expert" }, "difficulty"},
		{"allergy", func(p *UserProfile) { p.Allergies = []string{"Pollen"} }, "allergy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := baseProfile()
			tt.mutate(&p)
			_, err := Compute(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidProfile)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNormalizeAllergies(t *testing.T) {
	assert.Equal(t, []string{}, NormalizeAllergies(nil))
	assert.Equal(t, []string{}, NormalizeAllergies([]string{"None"}))
	assert.Equal(t, []string{"Nuts", "Dairy"}, NormalizeAllergies([]string{"Nuts", "None", "Dairy", "Nuts"}))

	p := baseProfile()
	assert.Equal(t, "None", p.AllergyList())
	p.Allergies = []string{"Gluten", "Eggs"}
	assert.Equal(t, "Gluten, Eggs", p.AllergyList())
}

func TestDefaultProfileIsValid(t *testing.T) {
	require.NoError(t, DefaultProfile().Validate())
}
