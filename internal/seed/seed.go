// Package seed holds the base data a fresh storefront starts from.
package seed

import "storefront/internal/models"

// Products returns the base catalog
func Products() []models.Product {
	return []models.Product{
		{
			ID:            "TC001",
			Name:          "Torta Cuadrada de Chocolate",
			Price:         45000,
			Category:      "Tortas Cuadradas",
			Attr:          "20 porciones",
			Image:         "/img/Torta Cuadrada de Chocolate.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Deliciosa torta de chocolate con capas de ganache y un toque de avellanas. Personalizable con mensajes especiales.",
		},
		{
			ID:            "TC002",
			Name:          "Torta Cuadrada de Frutas",
			Price:         50000,
			Category:      "Tortas Cuadradas",
			Attr:          "Frutas frescas",
			Image:         "/img/Torta Cuadrada de Frutas.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Mezcla de frutas frescas y crema chantilly sobre un suave bizcocho de vainilla. Ideal para celebraciones.",
		},
		{
			ID:            "TT001",
			Name:          "Torta Circular de Vainilla",
			Price:         40000,
			Category:      "Tortas Circulares",
			Attr:          "12 porciones",
			Image:         "/img/Torta Circular de Vainilla.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Bizcocho de vainilla clásico relleno con crema pastelera y glaseado dulce, perfecto para cualquier ocasión.",
		},
		{
			ID:            "TT002",
			Name:          "Torta Circular de Manjar",
			Price:         42000,
			Category:      "Tortas Circulares",
			Attr:          "Con nueces",
			Image:         "/img/Torta Circular de Manjar.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Torta tradicional con manjar y nueces, un deleite para los amantes de los sabores clásicos.",
		},
		{
			ID:            "PI001",
			Name:          "Mousse de Chocolate",
			Price:         5000,
			Category:      "Postres Individuales",
			Attr:          "Individual",
			Image:         "/img/Mousse de Chocolate.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Postre individual cremoso y suave, hecho con chocolate de alta calidad.",
		},
		{
			ID:            "PI002",
			Name:          "Tiramisú Clásico",
			Price:         5500,
			Category:      "Postres Individuales",
			Attr:          "Individual",
			Image:         "/img/Tiramisú Clásico.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Postre italiano individual con capas de café, mascarpone y cacao. Perfecto para finalizar cualquier comida.",
		},
		{
			ID:            "PSA001",
			Name:          "Torta Sin Azúcar de Naranja",
			Price:         48000,
			Category:      "Productos Sin Azúcar",
			Attr:          "Endulzada naturalmente",
			Image:         "/img/Torta Sin Azúcar de Naranja.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Ligera y deliciosa, endulzada naturalmente. Ideal para opciones más saludables.",
		},
		{
			ID:            "PSA002",
			Name:          "Cheesecake Sin Azúcar",
			Price:         47000,
			Category:      "Productos Sin Azúcar",
			Attr:          "Sin azúcar",
			Image:         "/img/Cheesecake.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Suave y cremoso, opción perfecta para disfrutar sin culpa.",
		},
		{
			ID:            "PG001",
			Name:          "Brownie Sin Gluten",
			Price:         4000,
			Category:      "Productos Sin Gluten",
			Attr:          "Cacao 70%",
			Image:         "/img/Brownie.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Rico y denso; ideal para quienes evitan el gluten sin sacrificar el sabor.",
		},
		{
			ID:            "PG002",
			Name:          "Pan Sin Gluten",
			Price:         3500,
			Category:      "Productos Sin Gluten",
			Attr:          "Pan de molde",
			Image:         "/img/Pan integral.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Suave y esponjoso, perfecto para sándwiches o acompañar cualquier comida.",
		},
		{
			ID:            "PV001",
			Name:          "Torta Vegana de Chocolate",
			Price:         50000,
			Category:      "Productos Vegana",
			Attr:          "Vegano",
			Image:         "/img/Torta Vegana de Chocolate.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Torta húmeda y deliciosa, sin productos de origen animal.",
		},
		{
			ID:            "PV002",
			Name:          "Galletas Veganas de Avena",
			Price:         4500,
			Category:      "Productos Vegana",
			Attr:          "Pack x 10",
			Image:         "/img/Galletas Veganas de Avena.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Crujientes y sabrosas; excelente opción de snack.",
		},
		{
			ID:            "TE001",
			Name:          "Torta Especial de Cumpleaños",
			Price:         55000,
			Category:      "Tortas Especiales",
			Attr:          "Personalizable",
			Image:         "/img/Torta Especial de Cumpleaños.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Personalizable con decoraciones y mensajes únicos.",
		},
		{
			ID:            "TE002",
			Name:          "Torta Especial de Boda",
			Price:         60000,
			Category:      "Tortas Especiales",
			Attr:          "Diseño elegante",
			Image:         "/img/Torta Especial de Boda.png",
			Stock:         6,
			CriticalStock: 2,
			Description:   "Elegante y deliciosa; pensada para ser el centro de tu boda.",
		},
	}
}

// Admins returns the base staff accounts
func Admins() []models.AdminAccount {
	return []models.AdminAccount{
		{
			RUN:       "19011022K",
			FirstName: "Juan",
			LastName:  "Pérez Soto",
			Email:     "admin@duoc.cl",
			Role:      models.RoleAdmin,
			Region:    "Región Metropolitana",
			Commune:   "Santiago",
			Address:   "Av. Siempre Viva 123",
		},
		{
			RUN:       "18022033K",
			FirstName: "Ana",
			LastName:  "López Díaz",
			Email:     "vendedor@duoc.cl",
			Role:      models.RoleSeller,
			Region:    "Valparaíso",
			Commune:   "Viña del Mar",
			Address:   "Calle Mar 456",
		},
		{
			RUN:       "20033044K",
			FirstName: "Luis",
			LastName:  "Ramírez Fuentes",
			Email:     "cliente@gmail.com",
			Role:      models.RoleCustomer,
			Region:    "Biobío",
			Commune:   "Concepción",
			Address:   "Las Flores 789",
		},
	}
}

// Orders returns the base order ledger
func Orders() []models.Order {
	return []models.Order{
		{
			ID:       "PED001",
			Customer: "Ana López",
			Total:    25000,
			Status:   models.OrderStatusPending,
			Items:    []models.OrderItem{{Code: "P001", Name: "Torta de Chocolate", Qty: 1, Price: 25000}},
		},
		{
			ID:       "PED002",
			Customer: "Juan Pérez",
			Total:    18000,
			Status:   models.OrderStatusDispatched,
			Items:    []models.OrderItem{{Code: "P003", Name: "Pastel de Zanahoria", Qty: 1, Price: 18000}},
		},
		{
			ID:       "PED003",
			Customer: "Luis Ramírez",
			Total:    32000,
			Status:   models.OrderStatusPending,
			Items:    []models.OrderItem{{Code: "P002", Name: "Cheesecake Frutos Rojos", Qty: 2, Price: 16000}},
		},
	}
}
