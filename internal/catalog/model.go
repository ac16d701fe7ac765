package catalog

type Product struct {
	ID               string
	Name             string
	SKU              string
	PriceMinor       int64
	Stock            int64
	UsesVariantStock bool
	Variants         []*Variant
}

type Variant struct {
	ID         string
	ProductID  string
	Name       string
	SKU        string
	PriceMinor int64
	Stock      int64
}
