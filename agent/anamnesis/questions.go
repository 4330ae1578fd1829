package anamnesis

// Questions is the fixed intake questionnaire, asked in order. The list is
// immutable for the process lifetime and shared across sessions.
var Questions = []string{
	"¿Qué te motivó a buscar apoyo psicológico en este momento?",
	"¿Desde cuándo vienes experimentando esta situación o malestar?",
	"¿Cómo describirías tu estado de ánimo en las últimas semanas?",
	"¿Has tenido dificultades para dormir, comer o concentrarte últimamente?",
	"¿Existen eventos recientes en tu vida que consideres importantes para tu bienestar emocional?",
	"¿Tienes antecedentes de haber recibido terapia psicológica o psiquiátrica antes?",
	"¿Hay situaciones o actividades que te ayuden a sentirte mejor cuando estás mal?",
	"¿Con quién cuentas como red de apoyo (familia, amigos, pareja, etc.)?",
	"¿Hay algún problema de salud física que quieras mencionar?",
	"¿Qué esperas lograr o cambiar a través de este proceso terapéutico?",
}
