package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/logging"
	"cravecart/internal/realtime"
	"cravecart/internal/repo"
	"cravecart/internal/service"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// simulate drives orders through the whole lifecycle against the in-memory
// store, with several drivers racing for every job.
func main() {
	orders := flag.Int("orders", 20, "number of orders to simulate")
	drivers := flag.Int("drivers", 3, "drivers racing for each job")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logging.New("warn", "text")
	store := repo.NewMemoryStore()
	hub := realtime.NewHub(store.Orders(), logging.For(log, "realtime"))
	go hub.Run(ctx)

	orderService := service.NewOrderService(store.Orders(), store.Catalog(), store.Profiles(), hub, hub, domain.DefaultPricing(), logging.For(log, "order-service"))
	profiles := service.NewProfileService(store.Profiles(), logging.For(log, "profile-service"))
	catalog := service.NewCatalogService(store.Catalog(), logging.For(log, "catalog-service"))

	fake := faker.New()
	kitchen := domain.Restaurant{PartnerID: "restaurant-1", Name: fake.Company().Name()}
	if _, err := catalog.SaveStorefront(ctx, domain.Admin{Name: "simulator"}, domain.Storefront{
		ID:      kitchen.PartnerID,
		Name:    kitchen.Name,
		Cuisine: "Fast food",
		Menu:    menu,
	}); err != nil {
		log.Fatalf("seed catalog: %v", err)
	}
	fleet := make([]domain.Driver, *drivers)
	for i := range fleet {
		fleet[i] = domain.Driver{PartnerID: fmt.Sprintf("driver-%d", i+1), Name: fake.Person().Name()}
	}

	// The dispatch board shows what drivers would see as available jobs.
	board, err := orderService.SubscribeOrders(ctx, domain.OrderFilter{Status: domain.OrderCooking, Unclaimed: true})
	if err != nil {
		log.Fatalf("subscribe: %v", err)
	}
	defer board.Close()
	var boardUpdates atomic.Int64
	go func() {
		for range board.C() {
			boardUpdates.Add(1)
		}
	}()

	wins := make(map[string]int)
	var lostRaces int
	bar := progressbar.Default(int64(*orders), "delivering")

	fmt.Printf("--- STARTING SIMULATION (%d ORDERS) ---\n", *orders)
	for i := 0; i < *orders; i++ {
		customer := domain.Customer{UID: uuid.NewString(), Name: fake.Person().Name()}

		// Every other customer relies on the address saved in their profile.
		address := fake.Address().Address()
		if i%2 == 0 {
			if _, err := profiles.UpdateProfile(ctx, customer, service.UpdateProfileRequest{
				City:    fake.Address().City(),
				Address: address,
			}); err != nil {
				log.Errorf("profile failed: %v", err)
			}
			address = ""
		}

		// 1. Create
		order, err := orderService.CreateOrder(ctx, customer, service.CreateOrderRequest{
			RestaurantID:    kitchen.PartnerID,
			Items:           randomCart(),
			DeliveryAddress: address,
			PaymentMethod:   domain.PaymentCashOnDelivery,
		})
		if err != nil {
			log.Errorf("create failed: %v", err)
			continue
		}

		// 2. Accept, twice, as two dashboard sessions would.
		for range 2 {
			if err := orderService.AcceptOrder(ctx, order.ID, kitchen); err != nil {
				log.Errorf("accept failed: %v", err)
			}
		}

		// 3. Drivers race for the job.
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			winner domain.Driver
		)
		for _, d := range fleet {
			wg.Add(1)
			go func(d domain.Driver) {
				defer wg.Done()
				err := orderService.ClaimOrder(ctx, order.ID, d)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winner = d
				case errors.Is(err, domain.ErrIllegalTransition):
					lostRaces++
				default:
					log.Errorf("claim failed: %v", err)
				}
			}(d)
		}
		wg.Wait()
		if winner.PartnerID == "" {
			continue
		}
		wins[winner.PartnerID]++

		// 4. Deliver
		for _, next := range []domain.OrderStatus{domain.OrderOutForDelivery, domain.OrderDelivered} {
			if err := orderService.AdvanceDelivery(ctx, order.ID, winner, next); err != nil {
				log.Errorf("advance failed: %v", err)
			}
		}

		_ = bar.Add(1)
		time.Sleep(10 * time.Millisecond)
	}

	delivered, _ := orderService.ListOrders(ctx, domain.OrderFilter{Status: domain.OrderDelivered})
	revenue := decimal.Zero
	for _, o := range delivered {
		revenue = revenue.Add(o.Total)
	}

	fmt.Println()
	fmt.Println("---------------------------------------------------")
	fmt.Printf("delivered: %d/%d  revenue: %s\n", len(delivered), *orders, revenue.StringFixed(2))
	fmt.Printf("claims lost to another driver: %d\n", lostRaces)
	for _, d := range fleet {
		fmt.Printf("    %-10s %-24s %d jobs\n", d.PartnerID, d.Name, wins[d.PartnerID])
	}
	fmt.Printf("dispatch board updates: %d\n", boardUpdates.Load())
}

var menu = []domain.MenuItem{
	{ID: "101", Name: "Whopper", Price: decimal.NewFromInt(349)},
	{ID: "102", Name: "Fries", Price: decimal.NewFromInt(99)},
	{ID: "201", Name: "Pepperoni", Price: decimal.NewFromInt(499)},
	{ID: "202", Name: "Garlic Bread", Price: decimal.NewFromInt(149)},
}

func randomCart() []service.CartLine {
	n := 1 + rand.IntN(3)
	lines := make([]service.CartLine, n)
	for i := range lines {
		lines[i] = service.CartLine{ID: menu[rand.IntN(len(menu))].ID, Quantity: 1 + rand.IntN(2)}
	}
	return lines
}
