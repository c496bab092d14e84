package shopfile

import (
	"os"

	"gopkg.in/yaml.v3"

	"shopcraft.gg/internal/protocol"
)

type seedFile struct {
	Listings []seedListing `yaml:"listings"`
}

type seedListing struct {
	ItemTypeID    string `yaml:"item"`
	Count         int    `yaml:"count"`
	Quantity      int    `yaml:"quantity"`
	BuyPrice      int64  `yaml:"buy_price"`
	SellPrice     int64  `yaml:"sell_price"`
	Seller        string `yaml:"seller"`
	ComponentData string `yaml:"component_data"`
}

// LoadSeed reads a starter catalog definition. Missing file is not an
// error; callers fall back to DefaultSeed.
func LoadSeed(path string) ([]protocol.Listing, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	out := make([]protocol.Listing, 0, len(f.Listings))
	for _, s := range f.Listings {
		out = append(out, protocol.Listing{
			ItemTypeID:    s.ItemTypeID,
			Count:         s.Count,
			Quantity:      s.Quantity,
			BuyPrice:      s.BuyPrice,
			SellPrice:     s.SellPrice,
			Seller:        s.Seller,
			ComponentData: s.ComponentData,
		})
	}
	return out, nil
}

// DefaultSeed is the built-in starter catalog: everyday goods plus one
// listing carrying a non-trivial attribute document.
func DefaultSeed() []protocol.Listing {
	return []protocol.Listing{
		{ItemTypeID: "stone", Count: 16, Quantity: 16, BuyPrice: 4, SellPrice: 1, Seller: "Server"},
		{ItemTypeID: "oak_log", Count: 8, Quantity: 8, BuyPrice: 6, SellPrice: 2, Seller: "Server"},
		{ItemTypeID: "bread", Count: 4, Quantity: 4, BuyPrice: 10, SellPrice: 3, Seller: "Server"},
		{ItemTypeID: "diamond", Count: 1, Quantity: 1, BuyPrice: 100, SellPrice: 80, Seller: "Server"},
		{
			ItemTypeID: "iron_sword", Count: 1, Quantity: 1, BuyPrice: 250, SellPrice: 90, Seller: "Server",
			ComponentData: `{"custom_name":"Guard Issue Blade","enchantments":[{"id":"sharpness","level":2},{"id":"unbreaking","level":1}]}`,
		},
	}
}
