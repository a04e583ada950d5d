// Package seed holds the catalogue and till a fresh machine starts with.
package seed

import (
	"github.com/Zhima-Mochi/vending-machine/internal/domain/product"
	"github.com/Zhima-Mochi/vending-machine/internal/domain/till"
)

const defaultStock = 10

// Products returns the starting catalogue. IDs are left zero for the store to assign.
func Products() []*product.Product {
	items := []struct {
		name  string
		price int64
		slot  string
		image string
	}{
		{"Mineral Water", 10, "A1", "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQs64YWg7D04Zzb_LkkMUKaFwwV4beRHkP0sA&s"},
		{"Sparkling Water", 15, "A2", "https://crushmag-online.com/wp-content/uploads/2024/03/Sparkling-Water_S.Pellegrino_1x65.jpg"},
		{"Green Tea Bottle", 20, "A3", "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQdIA9f1qvcuTago5A5IoveaLOf04J-98-26g&s"},
		{"Lemon Tea", 20, "A4", "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcQNIEji--Ii95nudHg4AoMPhIAkYv53O6tTxA&s"},
		{"Potato Chips", 25, "B1", "https://i5.walmartimages.com/seo/Lay-s-Classic-Potato-Chips-15-25-oz-Bag_d9939d0f-6382-4a0d-97c1-d5444345899e_1.c22bb525689793e89a3525a65f5a730c.jpeg"},
		{"Corn Snack", 20, "B2", "https://siamstore.us/cdn/shop/files/TopUpPaprika1.jpg?v=1751886649"},
		{"Chocolate Bar", 30, "B3", "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcTKKqWDRvsoxcGLVj2Qr3Zl00TvYos2e7z_Lw&s"},
		{"Roasted Peanuts", 25, "C1", "https://jabsons.com/cdn/shop/files/320g_Nutraja_-_Eco_Brand_SALTED_PEANUT_FRONT.webp?v=1761731132&width=1946"},
		{"Mixed Nuts", 35, "C2", "https://inwfile.com/s-cm/zbk2zf.jpg"},
		{"Almond Pack", 40, "C3", "https://www.snackamor.com/cdn/shop/products/Almonds-1.png?v=1666267994"},
	}
	out := make([]*product.Product, 0, len(items))
	for _, it := range items {
		p, err := product.New(0, it.name, it.price, defaultStock, it.slot)
		if err != nil {
			panic(err)
		}
		p.ImageURL = it.image
		out = append(out, p)
	}
	return out
}

// Till returns the starting cash. 500 and 1000 have no slot, so the machine refuses them.
func Till() []till.Stock {
	return []till.Stock{
		{Denom: 1, Quantity: 50, Kind: till.KindCoin},
		{Denom: 5, Quantity: 50, Kind: till.KindCoin},
		{Denom: 10, Quantity: 50, Kind: till.KindCoin},
		{Denom: 20, Quantity: 20, Kind: till.KindBanknote},
		{Denom: 50, Quantity: 20, Kind: till.KindBanknote},
		{Denom: 100, Quantity: 10, Kind: till.KindBanknote},
	}
}
