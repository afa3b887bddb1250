package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"ladderbook/internal/engine"
	"ladderbook/internal/wire"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "address of the exchange server")
	userID := flag.Uint64("user", 0, "submitting user id")
	action := flag.String("action", "place", "action to perform: place, cancel")

	symbol := flag.String("symbol", "AAPL", "symbol (max 8 chars)")
	sideStr := flag.String("side", "buy", "order side: buy or sell")
	typeStr := flag.String("type", "limit", "order type: limit, market, ioc, fok, stop, stoplimit")
	price := flag.Uint64("price", 0, "limit price in integer minor units")
	stopPrice := flag.Uint64("stop-price", 0, "trigger price for stop/stoplimit orders")
	qtyStr := flag.String("qty", "10", "quantity, or comma-separated list (e.g. 10,20,50)")

	orderID := flag.Uint64("order-id", 0, "order id to cancel")

	flag.Parse()

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("connected to %s\n", *serverAddr)

	go readReports(conn)

	side := engine.Buy
	if strings.EqualFold(*sideStr, "sell") {
		side = engine.Sell
	}

	orderType, err := parseOrderType(*typeStr)
	if err != nil {
		log.Fatal(err)
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			msg := wire.NewOrderMessage{
				Symbol:    *symbol,
				Type:      orderType,
				Side:      side,
				Price:     *price,
				StopPrice: *stopPrice,
				Quantity:  qty,
				UserID:    *userID,
			}
			if _, err := conn.Write(wire.EncodeNewOrder(msg)); err != nil {
				log.Printf("failed to send order (qty %d): %v", qty, err)
				continue
			}
			fmt.Printf("-> sent %s %s %s qty=%d price=%d\n", strings.ToUpper(*sideStr), *symbol, orderType, qty, *price)
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if *orderID == 0 {
			log.Fatal("-order-id is required for cancel")
		}
		if _, err := conn.Write(wire.EncodeCancelOrder(*symbol, *orderID)); err != nil {
			log.Printf("failed to send cancel: %v", err)
		} else {
			fmt.Printf("-> sent cancel for order %d\n", *orderID)
		}

	default:
		log.Fatalf("unknown action: %s", *action)
	}

	fmt.Println("listening for reports... (ctrl-c to exit)")
	select {}
}

func parseOrderType(s string) (engine.OrderType, error) {
	switch strings.ToLower(s) {
	case "limit":
		return engine.Limit, nil
	case "market":
		return engine.Market, nil
	case "ioc":
		return engine.ImmediateOrCancel, nil
	case "fok":
		return engine.FillOrKill, nil
	case "stop":
		return engine.Stop, nil
	case "stoplimit":
		return engine.StopLimit, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

func parseQuantities(input string) []uint64 {
	var out []uint64
	for _, p := range strings.Split(input, ",") {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			out = append(out, val)
		} else {
			log.Printf("warning: invalid quantity %q, skipping", p)
		}
	}
	return out
}

func readReports(conn net.Conn) {
	buf := make([]byte, 4*1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			log.Printf("connection lost: %v", err)
			os.Exit(0)
		}
		report, err := wire.DeserializeReport(buf[:n])
		if err != nil {
			log.Printf("failed to parse report: %v", err)
			continue
		}
		if report.Type == wire.ErrorReport {
			fmt.Printf("\n[error] order=%d symbol=%s: %s\n", report.OrderID, report.Symbol, report.Err)
			continue
		}
		sideStr := "BUY"
		if report.Side == engine.Sell {
			sideStr = "SELL"
		}
		fmt.Printf("\n[execution] %s %s qty=%d price=%d order=%d vs=%d\n",
			sideStr, report.Symbol, report.Quantity, report.Price, report.OrderID, report.CounterpartyID)
	}
}
