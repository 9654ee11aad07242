package modes

import "github.com/ahmetcoskunkizilkaya/ablelink-backend/internal/models"

// MinTargetPx is the smallest hit target on the physical surface.
const MinTargetPx = 160

// Physical renders the shared data with large hit targets.
type Physical struct{}

func NewPhysical() *Physical {
	return &Physical{}
}

func (*Physical) Profile() models.Profile { return models.ProfilePhysical }

func (p *Physical) Render(c Content) View {
	v := baseView(models.ProfilePhysical, c)
	v.Title = "AbleLink Dashboard"
	v.Subtitle = "Large buttons for easy access"
	v.TargetMinPx = MinTargetPx
	return v
}

func (p *Physical) Announce(Narrator, Content) {}

func (p *Physical) React(Narrator, Event) *Banner { return nil }
