package query

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"fedsearch/internal/errors"
)

// ContactSource resolves a contact name to known addresses. Sources are
// consulted in configured order; the first non-empty answer wins.
type ContactSource interface {
	Lookup(name string) []string
}

// LookupFunc adapts a plain function to a ContactSource.
type LookupFunc func(name string) []string

// Lookup implements ContactSource.
func (f LookupFunc) Lookup(name string) []string {
	return f(name)
}

// StaticContacts is a fixed name-to-addresses table. Names match
// case-insensitively.
type StaticContacts map[string][]string

// Lookup implements ContactSource.
func (c StaticContacts) Lookup(name string) []string {
	if addrs, ok := c[name]; ok {
		return addrs
	}
	lower := strings.ToLower(name)
	for k, addrs := range c {
		if strings.ToLower(k) == lower {
			return addrs
		}
	}
	return nil
}

// LoadAddressBook reads a YAML file mapping contact names to address lists.
func LoadAddressBook(path string) (StaticContacts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var book StaticContacts
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, errors.New(errors.ConfigInvalid,
			"malformed address book "+path, err)
	}
	return book, nil
}

// normalizeContact expands a contact search into sender/recipient key-value
// expressions, one per known address.
func (p *Parser) normalizeContact(key, name string) (Node, error) {
	if len(p.opts.Contacts) == 0 {
		return nil, errors.Newf(errors.ContactsUnconfigured,
			"no contact lookup sources configured, cannot search %s:%s", key, name)
	}

	var addresses []string
	for _, source := range p.opts.Contacts {
		if addrs := source.Lookup(name); len(addrs) > 0 {
			addresses = addrs
			break
		}
	}
	if len(addresses) == 0 {
		// Unknown contact: treat the literal value as the single address.
		addresses = []string{name}
	}

	if key == "contact-from" && len(addresses) == 1 {
		return &KeyValue{Key: "sender", Value: addresses[0]}, nil
	}

	nodes := make([]Node, 0, len(addresses))
	for _, addr := range addresses {
		switch key {
		case "contact-from":
			nodes = append(nodes, &KeyValue{Key: "sender", Value: addr})
		case "contact-to":
			nodes = append(nodes, &KeyValue{Key: "recipient", Value: addr})
		default: // "contact" matches either direction
			nodes = append(nodes, &Or{
				Left:  &KeyValue{Key: "recipient", Value: addr},
				Right: &KeyValue{Key: "sender", Value: addr},
			})
		}
	}
	return foldOr(nodes), nil
}

// foldOr chains nodes into a right-associative Or tree.
func foldOr(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &Or{Left: nodes[0], Right: foldOr(nodes[1:])}
}
