package healthcalc

import "fmt"

// activityMultipliers scales BMR to maintenance calories.
var activityMultipliers = map[ActivityLevel]float64{
	Sedentary:        1.2,
	LightlyActive:    1.375,
	ModeratelyActive: 1.55,
	VeryActive:       1.725,
	ExtraActive:      1.9,
}

// goalOffsets is the fixed kcal adjustment applied on top of maintenance.
var goalOffsets = map[Goal]float64{
	GoalWeightLoss:          -500,
	GoalWeightGain:          +500,
	GoalMuscleGain:          +300,
	GoalMaintenance:         0,
	GoalAthleticPerformance: +200,
}

// BMI category thresholds.
const (
	underweightBelow = 18.5
	overweightAbove  = 25.0
)

const (
	proteinGramsPerKg = 1.6
	carbCalorieShare  = 0.45
	fatCalorieShare   = 0.25
	kcalPerGramCarbs  = 4.0
	kcalPerGramFat    = 9.0
	dailyFiberGrams   = 25
	waterMillisPerKg  = 35.0
)

// MacroTargets are daily gram targets derived from the calorie target.
type MacroTargets struct {
	ProteinG int `json:"protein_g"`
	CarbsG   int `json:"carbs_g"`
	FatG     int `json:"fat_g"`
	FiberG   int `json:"fiber_g"`
}

// Snapshot holds every metric derived from a profile.
type Snapshot struct {
	BMI                 float64      `json:"bmi"`
	BMICategory         string       `json:"bmi_category"`
	BMIRecommendation   string       `json:"bmi_recommendation"`
	BMR                 float64      `json:"bmr"`
	MaintenanceCalories float64      `json:"maintenance_calories"`
	GoalOffset          float64      `json:"goal_offset"`
	TargetCalories      float64      `json:"target_calories"`
	Macros              MacroTargets `json:"macros"`
	WaterIntakeMl       float64      `json:"water_intake_ml"`
}

// BMR estimates basal metabolic rate (kcal/day) with the revised Harris-Benedict
// coefficients. Every gender other than Male uses the female equation.
func BMR(age int, gender Gender, heightCm, weightKg float64) float64 {
	a := float64(age)
	if gender == GenderMale {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*a
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*a
}

// BMI returns weight over height in metres squared.
func BMI(weightKg, heightCm float64) float64 {
	m := heightCm / 100
	return weightKg / (m * m)
}

// MaintenanceCalories applies the activity multiplier to a BMR.
func MaintenanceCalories(bmr float64, level ActivityLevel) (float64, error) {
	mult, ok := activityMultipliers[level]
	if !ok {
		return 0, fmt.Errorf("%w: unknown activity level %q", ErrInvalidProfile, level)
	}
	return bmr * mult, nil
}

// ActivityMultiplier exposes the multiplier table.
func ActivityMultiplier(level ActivityLevel) (float64, bool) {
	m, ok := activityMultipliers[level]
	return m, ok
}

// GoalOffset looks up the kcal adjustment for a goal.
func GoalOffset(goal Goal) (float64, error) {
	off, ok := goalOffsets[goal]
	if !ok {
		return 0, fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, goal)
	}
	return off, nil
}

// TargetCalories is maintenance plus the goal offset.
func TargetCalories(maintenance float64, goal Goal) (float64, error) {
	off, err := GoalOffset(goal)
	if err != nil {
		return 0, err
	}
	return maintenance + off, nil
}

// ClassifyBMI returns the category name and a one-line recommendation.
func ClassifyBMI(bmi float64) (string, string) {
	switch {
	case bmi < underweightBelow:
		return "Underweight", "Your BMI indicates you're underweight. Consider consulting a healthcare provider."
	case bmi > overweightAbove:
		return "Overweight", "Your BMI indicates you're overweight. A balanced diet and exercise can help."
	default:
		return "Normal", "Your BMI is in the normal range!"
	}
}

// Macros derives daily macro targets. Values are truncated to whole grams.
func Macros(targetCalories float64, weightKg float64) MacroTargets {
	return MacroTargets{
		ProteinG: int(weightKg * proteinGramsPerKg),
		CarbsG:   int(targetCalories * carbCalorieShare / kcalPerGramCarbs),
		FatG:     int(targetCalories * fatCalorieShare / kcalPerGramFat),
		FiberG:   dailyFiberGrams,
	}
}

// WaterIntakeMl is the recommended daily water intake.
func WaterIntakeMl(weightKg float64) float64 {
	return weightKg * waterMillisPerKg
}

// Compute validates the profile and derives its Snapshot.
func Compute(p UserProfile) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}

	height := float64(p.HeightCm)
	weight := float64(p.WeightKg)

	bmr := BMR(p.Age, p.Gender, height, weight)
	maintenance, err := MaintenanceCalories(bmr, p.ActivityLevel)
	if err != nil {
		return Snapshot{}, err
	}
	offset, err := GoalOffset(p.Goal)
	if err != nil {
		return Snapshot{}, err
	}
	target := maintenance + offset

	bmi := BMI(weight, height)
	category, recommendation := ClassifyBMI(bmi)

	return Snapshot{
		BMI:                 bmi,
		BMICategory:         category,
		BMIRecommendation:   recommendation,
		BMR:                 bmr,
		MaintenanceCalories: maintenance,
		GoalOffset:          offset,
		TargetCalories:      target,
		Macros:              Macros(target, weight),
		WaterIntakeMl:       WaterIntakeMl(weight),
	}, nil
}
