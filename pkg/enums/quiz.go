package enums

import "fmt"

// QuizUsage is what the shopper plans to build.
type QuizUsage string

const (
	QuizUsageInterior  QuizUsage = "interior"
	QuizUsageFurniture QuizUsage = "furniture"
	QuizUsageExterior  QuizUsage = "exterior"
	QuizUsageFormwork  QuizUsage = "formwork"
	QuizUsagePackaging QuizUsage = "packaging"
)

var validQuizUsages = []QuizUsage{
	QuizUsageInterior,
	QuizUsageFurniture,
	QuizUsageExterior,
	QuizUsageFormwork,
	QuizUsagePackaging,
}

// ParseQuizUsage converts raw input into a QuizUsage.
func ParseQuizUsage(value string) (QuizUsage, error) {
	for _, candidate := range validQuizUsages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid usage %q", value)
}

// QuizMoisture is the exposure the sheet will face.
type QuizMoisture string

const (
	QuizMoistureDry   QuizMoisture = "dry"
	QuizMoistureHumid QuizMoisture = "humid"
	QuizMoistureWet   QuizMoisture = "wet"
)

var validQuizMoistures = []QuizMoisture{
	QuizMoistureDry,
	QuizMoistureHumid,
	QuizMoistureWet,
}

// ParseQuizMoisture converts raw input into a QuizMoisture.
func ParseQuizMoisture(value string) (QuizMoisture, error) {
	for _, candidate := range validQuizMoistures {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid moisture %q", value)
}

// QuizThickness buckets the preferred sheet thickness.
type QuizThickness string

const (
	QuizThicknessAny    QuizThickness = "any"
	QuizThicknessThin   QuizThickness = "thin"
	QuizThicknessMedium QuizThickness = "medium"
	QuizThicknessThick  QuizThickness = "thick"
)

var validQuizThicknesses = []QuizThickness{
	QuizThicknessAny,
	QuizThicknessThin,
	QuizThicknessMedium,
	QuizThicknessThick,
}

// ParseQuizThickness converts raw input into a QuizThickness. Empty input is "any".
func ParseQuizThickness(value string) (QuizThickness, error) {
	if value == "" {
		return QuizThicknessAny, nil
	}
	for _, candidate := range validQuizThicknesses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid thickness %q", value)
}

// QuizFinish is the requested surface treatment.
type QuizFinish string

const (
	QuizFinishAny       QuizFinish = "any"
	QuizFinishSanded    QuizFinish = "sanded"
	QuizFinishLaminated QuizFinish = "laminated"
)

var validQuizFinishes = []QuizFinish{
	QuizFinishAny,
	QuizFinishSanded,
	QuizFinishLaminated,
}

// ParseQuizFinish converts raw input into a QuizFinish. Empty input is "any".
func ParseQuizFinish(value string) (QuizFinish, error) {
	if value == "" {
		return QuizFinishAny, nil
	}
	for _, candidate := range validQuizFinishes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid finish %q", value)
}
