package vehicle

import (
	"github.com/opencarlink/carlink-core/pkg/tree"
)

// Position type enum members.
const (
	PositionParking = "parking"
	PositionDriving = "driving"
	PositionInvalid = "invalid"
	PositionUnknown = "unknown"
)

// Position is the vehicle's last reported location.
type Position struct {
	obj *tree.Object

	PositionType *tree.Attribute
	Latitude     *tree.Attribute
	Longitude    *tree.Attribute
}

func newPosition(parent *tree.Object) (*Position, error) {
	obj := tree.MustObject("position")
	if err := parent.AddChild(obj); err != nil {
		return nil, err
	}
	p := &Position{
		obj:          obj,
		PositionType: tree.MustAttribute("position_type", tree.KindEnum, tree.WithEnumValues(PositionParking, PositionDriving, PositionInvalid, PositionUnknown)),
		Latitude:     tree.MustAttribute("latitude", tree.KindFloat, tree.WithBounds(-90, 90)),
		Longitude:    tree.MustAttribute("longitude", tree.KindFloat, tree.WithBounds(-180, 180)),
	}
	for _, attr := range []*tree.Attribute{p.PositionType, p.Latitude, p.Longitude} {
		if err := obj.AddAttribute(attr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Object returns the position subsystem's tree node.
func (p *Position) Object() *tree.Object { return p.obj }
