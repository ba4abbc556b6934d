// Command directorystub serves a canned customer and product directory on one
// port for local development. It stands in for the two real directory
// services and lets a product price be changed live, which is the quickest
// way to watch a bill's stored unit price diverge from the current one.
package main

import (
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"billing-aggregation-backend/internal/directory"
)

type store struct {
	mu        sync.RWMutex
	customers []directory.Customer
	products  []directory.Product
}

func seed() *store {
	return &store{
		customers: []directory.Customer{
			{ID: uuid.NewString(), Name: "Yassine", Email: "yassine@test.com"},
			{ID: uuid.NewString(), Name: "Ahmed", Email: "ahmed@gmail.com"},
			{ID: uuid.NewString(), Name: "Mohammed", Email: "mohammed@gmail.com"},
		},
		products: []directory.Product{
			{ID: uuid.NewString(), Name: "Computer", Price: 6500, Quantity: 12},
			{ID: uuid.NewString(), Name: "Printer", Price: 1200, Quantity: 15},
			{ID: uuid.NewString(), Name: "Smartphone", Price: 3200, Quantity: 20},
		},
	}
}

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	s := seed()
	r := gin.Default()

	r.GET("/customers", func(c *gin.Context) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		c.JSON(http.StatusOK, s.customers)
	})
	r.GET("/customers/:id", func(c *gin.Context) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, customer := range s.customers {
			if customer.ID == c.Param("id") {
				c.JSON(http.StatusOK, customer)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
	})

	r.GET("/products", func(c *gin.Context) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		c.JSON(http.StatusOK, s.products)
	})
	r.GET("/products/:id", func(c *gin.Context) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		for _, product := range s.products {
			if product.ID == c.Param("id") {
				c.JSON(http.StatusOK, product)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	})

	// Change a price live to demo snapshot vs current price divergence.
	r.PUT("/products/:id/price", func(c *gin.Context) {
		var body struct {
			Price float64 `json:"price"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "price required"})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.products {
			if s.products[i].ID == c.Param("id") {
				s.products[i].Price = body.Price
				c.JSON(http.StatusOK, s.products[i])
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
	})

	r.Run(":" + port)
}
