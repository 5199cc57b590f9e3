package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/catalog"
	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
)

const (
	selection     = domain.SelectionCandyBar
	totalRequests = 50
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	inventory, err := catalog.BundledSource{}.LoadCatalog(ctx)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	item := inventory[selection]
	initialStock := item.Quantity

	// Enough money for every request, so only stock limits the outcome
	balance := item.Price.Mul(decimal.NewFromInt(totalRequests))
	machine := domain.NewMachine(inventory, balance)

	vendingService := service.NewVendingService(machine, storage.NewMemoryIdempotencyStore(), queueSize, zap.NewNop())
	defer vendingService.Close()

	// Drain the receipt queue in background
	go func() {
		for range vendingService.GetReceiptQueue() {
		}
	}()

	// Counters
	var successCount atomic.Int32
	var failCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := vendingService.Vend(ctx, uuid.New().String(), selection, 1)
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Selection:        %s\n", selection)
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == int32(initialStock) && fail == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d vends succeeded, %d failed\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d fail, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, fail)
	}

	finalItem, _ := vendingService.Lookup(selection)
	fmt.Printf("Final Stock:      %d\n", finalItem.Quantity)
	if finalItem.Quantity == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalItem.Quantity)
	}

	wantBalance := balance.Sub(item.Price.Mul(decimal.NewFromInt(int64(success))))
	if vendingService.Balance().Equal(wantBalance) {
		fmt.Printf("PASS: Balance %s matches %d vends\n", vendingService.Balance(), success)
	} else {
		fmt.Printf("FAIL: Expected balance %s, got %s\n", wantBalance, vendingService.Balance())
	}
}
