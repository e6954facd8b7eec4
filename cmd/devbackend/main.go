// Command devbackend runs the in-memory record store stub for local
// development. Seed data covers an employee, an existing customer, and a shop
// with a sign-up bonus so every gateway path is reachable.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty-gateway/internal/devbackend"
	"loyalty-gateway/internal/platform/httpserver"
	"loyalty-gateway/internal/platform/logger"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	log := logger.New("debug")

	dev := devbackend.New(devbackend.WithLogger(log))
	dev.AddEmployee(devbackend.Employee{
		ID:        "emp-0001",
		Name:      "Arisa",
		LineToken: "employee-token",
	})
	dev.AddShop(devbackend.Shop{
		ID:                "shop-0001",
		Name:              "Corner Mart",
		RegisterPointRate: 2.5,
	})
	dev.AddCustomer(devbackend.Customer{
		ID:        "cus-0001",
		Name:      "Nok",
		Phone:     "0812345678",
		LineToken: "customer-token",
		ShopID:    "shop-0001",
	})

	srv := httpserver.New(*addr, dev.Router())
	go func() {
		log.Info("devbackend listening", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
