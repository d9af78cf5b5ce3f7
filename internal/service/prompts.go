package service

import (
	"fmt"
	"strings"

	"github.com/boddenberg/card-compare-bfa-go/internal/domain"
)

const classifyTemplate = `Analyze this credit card query and extract the user's intent and any filters:
"%s"

Available banks: HDFC Bank, ICICI Bank, Axis Bank, State Bank of India
Available categories: Premium, Mid-tier, Entry-level, Cashback
Available networks: Visa, Mastercard, RuPay

Extract filters based on keywords like:
- "lounge access", "airport lounge" -> loungeAccess: true
- "fuel cashback", "petrol cashback" -> fuelCashback: true
- "no annual fee", "free card" -> noAnnualFee: true
- "best for travel", "travel cards" -> bestFor: ["Travel"]
- "under 5000", "below 2000" -> maxAnnualFee: number

For comparison queries, extract specific card names mentioned.
Use null for anything the query does not mention.`

func classifyPrompt(query string) string {
	return fmt.Sprintf(classifyTemplate, query)
}

func summaryPrompt(query string, intent domain.Intent, found int) string {
	return fmt.Sprintf(`User asked: "%s"
Intent: %s
Found %d credit cards.

Generate a helpful response message that:
1. Acknowledges their query
2. Mentions how many cards were found
3. Gives a brief summary of the results
4. Is conversational and helpful

Keep it concise (1-2 sentences).`, query, intent, found)
}

func recommendationsPrompt(cards []domain.CardRecord) string {
	var b strings.Builder
	b.WriteString("Analyze these credit cards and provide 3-4 concise bullet points about why each is recommended:\n\n")
	for _, c := range cards {
		fmt.Fprintf(&b, "%s (%s):\n", c.Name, c.Bank)
		fmt.Fprintf(&b, "- Annual Fee: ₹%d\n", c.AnnualFee)
		fmt.Fprintf(&b, "- Cashback Rate: %s\n", c.CashbackRate)
		fmt.Fprintf(&b, "- Best For: %s\n", strings.Join(c.BestFor, ", "))
		fmt.Fprintf(&b, "- Benefits: %s\n\n", strings.Join(firstN(c.Benefits, 2), ", "))
	}
	b.WriteString("Format as bullet points, one key benefit per card.")
	return b.String()
}

func prosConsPrompt(c domain.CardRecord) string {
	var b strings.Builder
	b.WriteString("Analyze this credit card and provide pros and cons:\n\n")
	fmt.Fprintf(&b, "%s (%s):\n", c.Name, c.Bank)
	fmt.Fprintf(&b, "- Annual Fee: ₹%d\n", c.AnnualFee)
	fmt.Fprintf(&b, "- Joining Fee: ₹%d\n", c.JoiningFee)
	fmt.Fprintf(&b, "- Cashback Rate: %s\n", c.CashbackRate)
	fmt.Fprintf(&b, "- Lounge Access: %s\n", yesNo(c.LoungeAccess))
	fmt.Fprintf(&b, "- Fuel Cashback: %s\n", yesNo(c.FuelCashback))
	fmt.Fprintf(&b, "- Best For: %s\n", strings.Join(c.BestFor, ", "))
	fmt.Fprintf(&b, "- Benefits: %s\n", strings.Join(c.Benefits, ", "))
	fmt.Fprintf(&b, "- Eligibility: %s\n\n", c.Eligibility)
	b.WriteString(`Provide 3-4 pros and 2-3 cons in this format:
PROS:
- [pro 1]
- [pro 2]

CONS:
- [con 1]
- [con 2]`)
	return b.String()
}

// chatSystemPrompt grounds the conversational model on a catalog excerpt.
func chatSystemPrompt(cards []domain.CardRecord) string {
	var b strings.Builder
	b.WriteString("You are a helpful credit card comparison assistant. You have access to a comprehensive database of Indian credit cards.\n\n")
	b.WriteString("Here are some of the available credit cards in our database:\n")
	for _, c := range cards {
		lounge := "without"
		if c.LoungeAccess {
			lounge = "with"
		}
		fmt.Fprintf(&b, "- %s by %s: %s category, ₹%d annual fee, %s cashback rate, %s lounge access\n",
			c.Name, c.Bank, c.Category, c.AnnualFee, c.CashbackRate, lounge)
	}
	b.WriteString("\nWhen users ask about credit cards, provide helpful, accurate information based on this data. " +
		"Be conversational and helpful. If asked about specific comparisons, highlight key differences in features, fees, and benefits. " +
		"Always be honest about the limitations of any card and suggest alternatives when appropriate.\n\n")
	b.WriteString("Keep responses concise but informative. Focus on the most relevant details for the user's query.")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func firstN[T any](s []T, n int) []T {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
