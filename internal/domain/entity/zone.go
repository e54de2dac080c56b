package entity

import "fmt"

// Zone is an administrative region accounts can associate with. The
// (city, province) pair is unique; LocalName is the localized display name.
type Zone struct {
	ID        string
	City      string
	LocalName string
	Province  string
}

func (z Zone) String() string {
	return fmt.Sprintf("%s(%s)/%s", z.City, z.LocalName, z.Province)
}
