package risk

import (
	"golang.org/x/text/language"

	"heartguard/schema"
)

// Advisory thresholds for condition-triggered recommendations. These are
// tighter than the schema's validity domains: a cholesterol of 250 is a
// valid input but still worth flagging.
const (
	AdvisoryCholesterol = 240.0
	AdvisoryRestingBP   = 140.0
	AdvisoryOldpeak     = 2.0
)

var supportedLocales = []language.Tag{
	language.English,
	language.Spanish,
}

var localeMatcher = language.NewMatcher(supportedLocales)

// MatchLocale picks the recommendation locale from an Accept-Language
// header, falling back to English.
func MatchLocale(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, _ := localeMatcher.Match(tags...)
	return supportedLocales[index]
}

type catalog struct {
	base     map[Tier][]string
	advisory map[string]string
}

var catalogs = map[language.Tag]catalog{
	language.English: {
		base: map[Tier][]string{
			TierHigh: {
				"Consult a cardiologist promptly",
				"Adopt a heart-healthy diet",
				"Start with light physical activity under medical guidance",
				"Check blood pressure regularly",
				"Follow prescribed treatments",
			},
			TierMedium: {
				"Schedule a cardiac checkup",
				"Adopt a heart-healthy diet",
				"Exercise moderately most days of the week",
				"Monitor blood pressure and cholesterol",
			},
			TierLow: {
				"Continue your healthy lifestyle",
				"Keep up regular checkups",
				"Maintain physical activity",
				"Eat a balanced diet",
				"Repeat risk assessment annually",
			},
		},
		advisory: map[string]string{
			"cholesterol":         "Reduce saturated fat to bring cholesterol below 200 mg/dl",
			"resting_bp_s":        "Discuss elevated resting blood pressure with your doctor",
			"fasting_blood_sugar": "Have fasting blood sugar rechecked and screened for diabetes",
			"exercise_angina":     "Ask for an exercise stress evaluation for activity-induced chest pain",
			"oldpeak":             "Request a follow-up ECG for the observed ST depression",
		},
	},
	language.Spanish: {
		base: map[Tier][]string{
			TierHigh: {
				"Consulte a un cardiólogo cuanto antes",
				"Adopte una dieta cardiosaludable",
				"Comience con actividad física ligera bajo supervisión médica",
				"Controle la presión arterial con regularidad",
				"Siga los tratamientos prescritos",
			},
			TierMedium: {
				"Programe una revisión cardíaca",
				"Adopte una dieta cardiosaludable",
				"Haga ejercicio moderado la mayoría de los días",
				"Vigile la presión arterial y el colesterol",
			},
			TierLow: {
				"Mantenga su estilo de vida saludable",
				"Continúe con las revisiones periódicas",
				"Mantenga la actividad física",
				"Siga una dieta equilibrada",
				"Repita la evaluación de riesgo cada año",
			},
		},
		advisory: map[string]string{
			"cholesterol":         "Reduzca las grasas saturadas para bajar el colesterol de 200 mg/dl",
			"resting_bp_s":        "Consulte con su médico la presión arterial elevada en reposo",
			"fasting_blood_sugar": "Repita la glucemia en ayunas y descarte diabetes",
			"exercise_angina":     "Solicite una prueba de esfuerzo por el dolor torácico durante el ejercicio",
			"oldpeak":             "Solicite un ECG de seguimiento por la depresión del ST observada",
		},
	},
}

// advisoryOrder fixes the evaluation order of condition-triggered
// recommendations.
var advisoryOrder = []struct {
	field   string
	trigger func(raw schema.RawInput) bool
}{
	{"cholesterol", func(raw schema.RawInput) bool { return rawNumber(raw, "cholesterol") > AdvisoryCholesterol }},
	{"resting_bp_s", func(raw schema.RawInput) bool { return rawNumber(raw, "resting_bp_s") > AdvisoryRestingBP }},
	{"fasting_blood_sugar", func(raw schema.RawInput) bool { return rawLabel(raw, "fasting_blood_sugar") == "Yes" }},
	{"exercise_angina", func(raw schema.RawInput) bool { return rawLabel(raw, "exercise_angina") == "Yes" }},
	{"oldpeak", func(raw schema.RawInput) bool { return rawNumber(raw, "oldpeak") > AdvisoryOldpeak }},
}

// Recommend returns the tier's base recommendations followed by any
// condition-triggered ones, deduplicated, in a deterministic order.
func Recommend(tier Tier, raw schema.RawInput, locale language.Tag) []string {
	cat, ok := catalogs[locale]
	if !ok {
		cat = catalogs[language.English]
	}

	out := make([]string, 0, len(cat.base[tier])+len(advisoryOrder))
	seen := make(map[string]bool)
	for _, text := range cat.base[tier] {
		if !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	}
	for _, rule := range advisoryOrder {
		if !rule.trigger(raw) {
			continue
		}
		text := cat.advisory[rule.field]
		if text != "" && !seen[text] {
			seen[text] = true
			out = append(out, text)
		}
	}
	return out
}

func rawNumber(raw schema.RawInput, field string) float64 {
	switch v := raw[field].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func rawLabel(raw schema.RawInput, field string) string {
	if v, ok := raw[field].(string); ok {
		return v
	}
	return ""
}
