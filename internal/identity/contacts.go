package identity

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-vcard"
)

// Contacts maps handles to names from an exported address book.
type Contacts struct {
	byHandle map[string]string
	byPhone  map[string]string
}

// LoadContacts reads a vCard file. An empty path yields an empty book.
func LoadContacts(path string) (*Contacts, error) {
	if path == "" {
		return &Contacts{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()

	c, err := ReadContacts(f)
	if err != nil {
		return nil, fmt.Errorf("read contacts %s: %w", path, err)
	}
	return c, nil
}

// ReadContacts decodes every card in r. Each TEL and EMAIL value of a card
// maps to the card's formatted name, falling back to given + family name.
// The first card to claim a handle wins.
func ReadContacts(r io.Reader) (*Contacts, error) {
	c := &Contacts{
		byHandle: make(map[string]string),
		byPhone:  make(map[string]string),
	}

	dec := vcard.NewDecoder(r)
	for {
		card, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode vcard: %w", err)
		}

		name := cardName(card)
		if name == "" {
			continue
		}
		for _, tel := range card.Values(vcard.FieldTelephone) {
			c.add(strings.TrimPrefix(tel, "tel:"), name)
		}
		for _, email := range card.Values(vcard.FieldEmail) {
			c.add(strings.TrimPrefix(email, "mailto:"), name)
		}
	}
	return c, nil
}

func cardName(card vcard.Card) string {
	if fn := strings.TrimSpace(card.PreferredValue(vcard.FieldFormattedName)); fn != "" {
		return fn
	}
	if n := card.Name(); n != nil {
		return strings.TrimSpace(n.GivenName + " " + n.FamilyName)
	}
	return ""
}

func (c *Contacts) add(handle, name string) {
	key := NormalizeHandle(handle)
	if key == "" {
		return
	}
	if _, ok := c.byHandle[key]; !ok {
		c.byHandle[key] = name
	}
	if suffix := phoneSuffix(key); suffix != "" {
		if _, ok := c.byPhone[suffix]; !ok {
			c.byPhone[suffix] = name
		}
	}
}

// Lookup returns the name recorded for handle, or "". A nil book finds nothing.
func (c *Contacts) Lookup(handle string) string {
	if c == nil {
		return ""
	}
	key := NormalizeHandle(handle)
	if name, ok := c.byHandle[key]; ok {
		return name
	}
	if suffix := phoneSuffix(key); suffix != "" {
		return c.byPhone[suffix]
	}
	return ""
}

// Len reports how many distinct handles the book knows.
func (c *Contacts) Len() int {
	if c == nil {
		return 0
	}
	return len(c.byHandle)
}
