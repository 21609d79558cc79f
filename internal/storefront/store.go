package storefront

import (
	"fmt"
	"os"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Store describes one storefront the service can search in.
type Store struct {
	Code         string `yaml:"code"`
	Name         string `yaml:"name"`
	Locale       string `yaml:"locale"`
	Currency     string `yaml:"currency"`
	MediaBaseURL string `yaml:"media_base_url"`
}

type storesFile struct {
	Stores []Store `yaml:"stores"`
}

// DefaultStore is used when no stores file is configured.
func DefaultStore(code, mediaBaseURL string) Store {
	return Store{
		Code:         code,
		Name:         "Default Store View",
		Locale:       "en-US",
		Currency:     "USD",
		MediaBaseURL: mediaBaseURL,
	}
}

// LoadStores reads store definitions from a YAML file of the form
//
//	stores:
//	  - code: default
//	    locale: en-US
//	    currency: USD
//	    media_base_url: https://cdn.example.com/media/
func LoadStores(path string) ([]Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stores file: %w", err)
	}
	var f storesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse stores file %s: %w", path, err)
	}
	if len(f.Stores) == 0 {
		return nil, fmt.Errorf("stores file %s defines no stores", path)
	}
	return f.Stores, nil
}

func (s Store) resolve() (language.Tag, currency.Unit, error) {
	if s.Code == "" {
		return language.Und, currency.Unit{}, fmt.Errorf("store without code")
	}
	tag, err := language.Parse(s.Locale)
	if err != nil {
		return language.Und, currency.Unit{}, fmt.Errorf("store %s: locale %q: %w", s.Code, s.Locale, err)
	}
	unit, err := currency.ParseISO(s.Currency)
	if err != nil {
		return language.Und, currency.Unit{}, fmt.Errorf("store %s: currency %q: %w", s.Code, s.Currency, err)
	}
	return tag, unit, nil
}
