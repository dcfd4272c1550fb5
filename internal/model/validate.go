package model

import (
	"errors"
	"fmt"
	"sort"
)

// ErrMalformed marks a record that is missing required fields or carries
// values outside their domain.
var ErrMalformed = errors.New("malformed record")

func malformed(kind string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrMalformed, kind, fmt.Sprintf(format, args...))
}

func (l League) Validate() error {
	if l.ID <= 0 {
		return malformed("league", "id %d", l.ID)
	}
	if l.Name == "" {
		return malformed("league", "%d has no name", l.ID)
	}
	if len(l.Created) < 4 {
		return malformed("league", "%d has no created date", l.ID)
	}
	for _, s := range l.Standings {
		if s.Entry <= 0 {
			return malformed("league", "standing with entry %d", s.Entry)
		}
	}
	return nil
}

func (g Gameweek) Validate() error {
	if g.ID <= 0 {
		return malformed("gameweek", "id %d", g.ID)
	}
	return nil
}

func (p Pick) Validate() error {
	if p.Element <= 0 {
		return malformed("pick", "element %d", p.Element)
	}
	if p.Position < 1 || p.Position > 16 {
		return malformed("pick", "element %d position %d", p.Element, p.Position)
	}
	if p.Multiplier < 0 || p.Multiplier > 3 {
		return malformed("pick", "element %d multiplier %d", p.Element, p.Multiplier)
	}
	return nil
}

func (g UserGameweek) Validate() error {
	if g.Event <= 0 {
		return malformed("user gameweek", "event %d", g.Event)
	}
	for _, p := range g.Picks {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("gameweek %d: %w", g.Event, err)
		}
	}
	return nil
}

func (u User) Validate() error {
	if u.ID <= 0 {
		return malformed("user", "id %d", u.ID)
	}
	for _, row := range u.History {
		if err := row.Validate(); err != nil {
			return fmt.Errorf("user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (t Transfer) Validate() error {
	if t.Event <= 0 || t.ElementIn <= 0 || t.ElementOut <= 0 {
		return malformed("transfer", "event %d in %d out %d", t.Event, t.ElementIn, t.ElementOut)
	}
	return nil
}

func (c ChipUsage) Validate() error {
	if c.Event <= 0 || c.Name == "" {
		return malformed("chip", "%q in event %d", c.Name, c.Event)
	}
	return nil
}

func (f PlayerFixture) Validate() error {
	if f.Round <= 0 || f.Fixture <= 0 {
		return malformed("player fixture", "round %d fixture %d", f.Round, f.Fixture)
	}
	return nil
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return malformed("player", "id %d", p.ID)
	}
	if p.ElementType < Goalkeeper || p.ElementType > Manager {
		return malformed("player", "%d element_type %d", p.ID, p.ElementType)
	}
	for _, f := range p.History {
		if err := f.Validate(); err != nil {
			return fmt.Errorf("player %d: %w", p.ID, err)
		}
	}
	return nil
}

// Verify checks the cross-document invariants of a loaded snapshot and
// returns every violation found.
func (s *Snapshot) Verify() error {
	var errs []error

	for i, gw := range s.Gameweeks {
		if gw.ID != i+1 {
			errs = append(errs, fmt.Errorf("gameweeks not contiguous: position %d holds gameweek %d", i+1, gw.ID))
			break
		}
	}

	ids := make([]int, 0, len(s.Users))
	for id := range s.Users {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		u := s.Users[id]
		for i, row := range u.History {
			if row.Event != i+1 {
				errs = append(errs, fmt.Errorf("user %d: history not contiguous at gameweek %d", id, i+1))
				break
			}
		}
		for _, row := range u.History {
			if len(row.Picks) == 0 {
				continue
			}
			captains := 0
			for _, p := range row.Picks {
				if p.IsCaptain {
					captains++
				}
				if _, ok := s.Players[p.Element]; !ok {
					errs = append(errs, fmt.Errorf("user %d gameweek %d: pick %d not in players", id, row.Event, p.Element))
				}
			}
			if captains != 1 {
				errs = append(errs, fmt.Errorf("user %d gameweek %d: %d captains", id, row.Event, captains))
			}
		}
	}
	return errors.Join(errs...)
}
