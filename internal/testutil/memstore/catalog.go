package memstore

import (
	"context"
	"sync"

	"stockgate/internal/core/id"
)

// Catalog holds the reference ids a goods receipt may point at.
type Catalog struct {
	mu         sync.Mutex
	warehouses map[id.ID]bool
	users      map[id.ID]bool
	products   map[id.ID]bool
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		warehouses: map[id.ID]bool{},
		users:      map[id.ID]bool{},
		products:   map[id.ID]bool{},
	}
}

// AddWarehouse registers a new warehouse and returns its id.
func (c *Catalog) AddWarehouse() id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	wid := id.New()
	c.warehouses[wid] = true
	return wid
}

// AddUser registers a new user and returns its id.
func (c *Catalog) AddUser() id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	uid := id.New()
	c.users[uid] = true
	return uid
}

// AddProduct registers a new product and returns its id.
func (c *Catalog) AddProduct() id.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid := id.New()
	c.products[pid] = true
	return pid
}

func (c *Catalog) WarehouseExists(_ context.Context, warehouseID id.ID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warehouses[warehouseID], nil
}

func (c *Catalog) UserExists(_ context.Context, userID id.ID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users[userID], nil
}

func (c *Catalog) MissingProducts(_ context.Context, productIDs []id.ID) ([]id.ID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var missing []id.ID
	for _, pid := range productIDs {
		if !c.products[pid] {
			missing = append(missing, pid)
		}
	}
	return missing, nil
}
