package workflow

import "github.com/edupath/placement-api/internal/models"

// Pricing describes the fee schedule for one scholarship type: the full
// service fee and the portion the client actually pays.
type Pricing struct {
	ServiceFee float64
	ClientPays float64
}

var pricingTables = map[string]map[models.ScholarshipType]Pricing{
	"v1": {
		models.ScholarshipFull:       {ServiceFee: 5000, ClientPays: 2500},
		models.ScholarshipPartialA:   {ServiceFee: 4000, ClientPays: 2000},
		models.ScholarshipPartialB:   {ServiceFee: 3000, ClientPays: 1500},
		models.ScholarshipSelfFunded: {ServiceFee: 2000, ClientPays: 1000},
	},
}

// PricingFor resolves the pricing entry for a scholarship type under the
// given pricing version. Unknown versions fall back to v1.
func PricingFor(version string, t models.ScholarshipType) (Pricing, bool) {
	table, ok := pricingTables[version]
	if !ok {
		table = pricingTables["v1"]
	}
	p, ok := table[t]
	return p, ok
}
