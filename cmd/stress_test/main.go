package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/decantaria/fulfillment/internal/adapter/notify"
	"github.com/decantaria/fulfillment/internal/adapter/storage"
	"github.com/decantaria/fulfillment/internal/core/domain"
	"github.com/decantaria/fulfillment/internal/core/service"
)

const (
	productID     = "aventus-10ml-decant"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	store := storage.NewMemoryStore()
	store.AddProduct(domain.Product{
		ID:       productID,
		Name:     "Aventus 10ml decant",
		Price:    decimal.RequireFromString("120.00"),
		Stock:    initialStock,
		WeightKg: 0.05,
		Kind:     domain.KindDecant,
	})

	bus := notify.NewBus()
	defer bus.Close()
	go func() {
		for range bus.Subscribe(totalRequests) {
		}
	}()

	checkout := service.NewCheckoutService(store, store, nil, bus)
	pickup := domain.Offer{ProviderID: "pickup", Service: "Local pickup", Price: decimal.Zero}

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(userID int) {
			defer wg.Done()

			items, err := checkout.LoadCart(ctx, []service.ItemRef{{ProductID: productID, Quantity: 1}})
			if err != nil {
				failCount.Add(1)
				return
			}

			// Contention is retryable by contract; keep retrying the whole
			// commit until the ledger gives a definitive answer.
			for {
				_, err = checkout.CommitSale(ctx, service.CheckoutInput{
					Customer: domain.Customer{
						ID:   fmt.Sprintf("user-%d", userID),
						Name: fmt.Sprintf("User %d", userID),
					},
					Items:    items,
					Shipping: pickup,
				})
				if !errors.Is(err, domain.ErrContention) {
					break
				}
			}
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && fail == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d commits succeeded, %d rejected\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	product, err := store.GetProduct(ctx, productID)
	if err != nil {
		fmt.Printf("FAIL: could not read final stock: %v\n", err)
		return
	}
	fmt.Printf("Final Stock: %d\n", product.Stock)

	if product.Stock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", product.Stock)
	}
}
