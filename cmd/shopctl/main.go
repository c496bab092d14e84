// Command shopctl is a small operator CLI for a running shop server. It
// connects over the same websocket protocol replicas use, so anything it
// does is visible to every connected client immediately.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"shopcraft.gg/internal/protocol"
	"shopcraft.gg/internal/replica"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "list":
			listCmd(os.Args[2:])
			return
		case "add":
			addCmd(os.Args[2:])
			return
		case "remove":
			removeCmd(os.Args[2:])
			return
		case "admin-mode":
			adminModeCmd(os.Args[2:])
			return
		case "buy":
			transactCmd("buy", os.Args[2:])
			return
		case "sell":
			transactCmd("sell", os.Args[2:])
			return
		case "balance":
			balanceCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: shopctl <list|add|remove|admin-mode|buy|sell|balance> [flags]")
	os.Exit(2)
}

type connFlags struct {
	url   *string
	actor *string
	token *string
}

func addConnFlags(fs *flag.FlagSet) connFlags {
	return connFlags{
		url:   fs.String("url", "ws://127.0.0.1:8080/v1/ws", "server websocket url"),
		actor: fs.String("actor", "shopctl", "actor id"),
		token: fs.String("token", os.Getenv("SHOPCTL_TOKEN"), "auth token (or SHOPCTL_TOKEN)"),
	}
}

func dial(cf connFlags) (*replica.Client, context.Context, context.CancelFunc) {
	logger := log.New(os.Stderr, "[shopctl] ", log.LstdFlags)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := replica.Dial(ctx, *cf.url, *cf.actor, *cf.token, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "dial:", err)
		os.Exit(1)
	}
	return c, ctx, cancel
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cf := addConnFlags(fs)
	_ = fs.Parse(args)

	c, ctx, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	if err := c.WaitCatalog(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "catalog:", err)
		os.Exit(1)
	}
	rep := c.Replica()
	fmt.Printf("catalog v%d  balance=%d  admin_mode=%v\n", rep.CatalogVersion(), rep.Balance(), rep.AdminMode())
	for _, l := range rep.Listings() {
		line := fmt.Sprintf("%s  %s x%d  buy=%d sell=%d  seller=%s", l.GUID, l.ItemTypeID, l.Count, l.BuyPrice, l.SellPrice, l.Seller)
		if l.ComponentData != "" {
			line += "  attrs=" + l.ComponentData
		}
		fmt.Println(line)
	}
}

func addCmd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	cf := addConnFlags(fs)
	item := fs.String("item", "", "item type id")
	count := fs.Int("count", 1, "items per transaction")
	buy := fs.Int64("buy", 0, "buy price")
	sell := fs.Int64("sell", 0, "sell price")
	seller := fs.String("seller", "Server", "seller display name")
	attrs := fs.String("attrs", "", "attribute document (JSON)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*item) == "" {
		fmt.Fprintln(os.Stderr, "missing -item")
		os.Exit(2)
	}

	c, ctx, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	resp, err := c.AdminAdd(ctx, protocol.Listing{
		ItemTypeID:    *item,
		Count:         *count,
		Quantity:      *count,
		BuyPrice:      *buy,
		SellPrice:     *sell,
		Seller:        *seller,
		ComponentData: *attrs,
	})
	printAdminResp(resp, err)
}

func removeCmd(args []string) {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	cf := addConnFlags(fs)
	guid := fs.String("guid", "", "listing guid")
	_ = fs.Parse(args)

	if strings.TrimSpace(*guid) == "" {
		fmt.Fprintln(os.Stderr, "missing -guid")
		os.Exit(2)
	}

	c, ctx, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	resp, err := c.AdminRemove(ctx, *guid)
	printAdminResp(resp, err)
}

func adminModeCmd(args []string) {
	fs := flag.NewFlagSet("admin-mode", flag.ExitOnError)
	cf := addConnFlags(fs)
	on := fs.Bool("on", false, "enable admin mode")
	off := fs.Bool("off", false, "disable admin mode")
	_ = fs.Parse(args)

	if *on == *off {
		fmt.Fprintln(os.Stderr, "pass exactly one of -on / -off")
		os.Exit(2)
	}

	c, ctx, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	resp, err := c.AdminSetMode(ctx, *on)
	printAdminResp(resp, err)
}

func transactCmd(kind string, args []string) {
	fs := flag.NewFlagSet(kind, flag.ExitOnError)
	cf := addConnFlags(fs)
	guid := fs.String("guid", "", "listing guid")
	_ = fs.Parse(args)

	if strings.TrimSpace(*guid) == "" {
		fmt.Fprintln(os.Stderr, "missing -guid")
		os.Exit(2)
	}

	c, ctx, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	var resp protocol.TransactRespMsg
	var err error
	if kind == "buy" {
		resp, err = c.Buy(ctx, *guid)
	} else {
		resp, err = c.Sell(ctx, *guid)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, kind+":", err)
		os.Exit(1)
	}
	if !resp.OK {
		fmt.Fprintf(os.Stderr, "%s rejected: %s %s\n", kind, resp.Code, resp.Message)
		os.Exit(1)
	}
	fmt.Printf("ok  new_balance=%d\n", resp.NewBalance)
}

func balanceCmd(args []string) {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	cf := addConnFlags(fs)
	_ = fs.Parse(args)

	c, _, cancel := dial(cf)
	defer cancel()
	defer c.Close()

	fmt.Println(c.Replica().Balance())
}

func printAdminResp(resp protocol.AdminRespMsg, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "admin:", err)
		os.Exit(1)
	}
	if !resp.OK {
		fmt.Fprintf(os.Stderr, "rejected: %s %s\n", resp.Code, resp.Message)
		os.Exit(1)
	}
	if resp.GUID != "" {
		fmt.Println(resp.GUID)
		return
	}
	fmt.Println("ok")
}
