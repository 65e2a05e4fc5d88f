package chatbot

import "strings"

// Intent is the classified purpose of a visitor message.
type Intent string

const (
	IntentGreeting Intent = "greeting"
	IntentHours    Intent = "hours"
	IntentServices Intent = "services"
	IntentPricing  Intent = "pricing"
	IntentBooking  Intent = "booking"
	IntentLocation Intent = "location"
	IntentContact  Intent = "contact"
	IntentPayment  Intent = "payment"
	IntentThanks   Intent = "thanks"
	IntentFallback Intent = "fallback"
)

type intentRule struct {
	Intent   Intent
	Keywords []string
}

// Responder classifies a message into an intent and answers from a template
// table. First matching rule wins, so more specific rules come first.
type Responder struct {
	rules     []intentRule
	templates map[Intent]string
}

func NewResponder() *Responder {
	return &Responder{
		rules: []intentRule{
			{IntentBooking, []string{"rendez-vous", "rendez vous", "rdv", "reserver", "réserver", "prendre"}},
			{IntentHours, []string{"horaire", "ouvert", "fermé", "ferme", "quelle heure"}},
			{IntentPricing, []string{"prix", "tarif", "coût", "cout", "combien"}},
			{IntentServices, []string{"vidange", "révision", "revision", "frein", "pneu", "diagnostic", "climatisation", "service"}},
			{IntentPayment, []string{"paiement", "payer", "orange money", "mtn", "momo", "carte"}},
			{IntentLocation, []string{"adresse", "où", "ou se trouve", "localisation", "situé", "situe"}},
			{IntentContact, []string{"téléphone", "telephone", "appeler", "contact", "email", "mail"}},
			{IntentThanks, []string{"merci", "super", "parfait"}},
			{IntentGreeting, []string{"bonjour", "bonsoir", "salut", "hello"}},
		},
		templates: map[Intent]string{
			IntentGreeting: "Bonjour et bienvenue chez IN AUTO ! Comment puis-je vous aider ?",
			IntentHours:    "Nous sommes ouverts du lundi au samedi, de 8h à 18h.",
			IntentServices: "Nous proposons vidange, révision complète, freinage, pneus, climatisation et diagnostic électronique.",
			IntentPricing:  "Nos tarifs dépendent du véhicule et de la prestation. Demandez un devis gratuit via le formulaire de rendez-vous.",
			IntentBooking:  "Vous pouvez prendre rendez-vous directement depuis le formulaire de réservation. Trois véhicules maximum par créneau !",
			IntentLocation: "Notre atelier se trouve à Douala, Akwa, en face de la station Total.",
			IntentContact:  "Vous pouvez nous joindre au +237 6 99 00 00 00 ou par email à contact@inauto.cm.",
			IntentPayment:  "Nous acceptons Orange Money, MTN Mobile Money et la carte bancaire.",
			IntentThanks:   "Avec plaisir ! À bientôt chez IN AUTO.",
			IntentFallback: "Je n'ai pas bien compris. Vous pouvez me demander nos horaires, nos services, nos tarifs ou prendre rendez-vous.",
		},
	}
}

// Classify returns the first intent whose keyword set matches the message.
func (r *Responder) Classify(message string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return IntentFallback
	}

	for _, rule := range r.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(normalized, kw) {
				return rule.Intent
			}
		}
	}
	return IntentFallback
}

// Reply classifies the message and returns the matching response template.
func (r *Responder) Reply(message string) (Intent, string) {
	intent := r.Classify(message)
	reply, ok := r.templates[intent]
	if !ok {
		reply = r.templates[IntentFallback]
	}
	return intent, reply
}
