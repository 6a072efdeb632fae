package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/persistence"
	"github.com/talgya/econsim/internal/shop"
)

const shopUsage = `usage: econctl shop <command> [args]

  add <name> <owner-uuid> [display name]
  rename <name> <display name>
  remove <name>
  owner add <name> <uuid>
  owner remove [-admin] <name> <uuid>
  rows <name> <n>
  list <name> <kind> [count]
  unlist <name> <slot>

Run while econsim is stopped; a running server saves its own shop list over these edits.`

var errUsage = errors.New(shopUsage)

// runShop applies one edit to the saved shop registry.
func runShop(db *persistence.DB, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	saved, err := db.LoadShops()
	if err != nil {
		return fmt.Errorf("load shops: %w", err)
	}
	shops := shop.NewList()
	shops.Replace(saved)

	if err := editShops(shops, args[0], args[1:], out); err != nil {
		return err
	}

	if err := db.SaveShops(shops.All()); err != nil {
		return fmt.Errorf("save shops: %w", err)
	}
	return nil
}

func editShops(shops *shop.List, cmd string, args []string, out io.Writer) error {
	switch cmd {
	case "add":
		if len(args) < 2 {
			return errUsage
		}
		owner, err := uuid.Parse(args[1])
		if err != nil {
			return fmt.Errorf("owner %q: %w", args[1], err)
		}
		s := shop.New(args[0], strings.Join(args[2:], " "))
		s.AddOwner(owner)
		if err := shops.Add(s); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created shop %s (%s)\n", s.Name, s.DisplayName)

	case "rename":
		if len(args) < 2 {
			return errUsage
		}
		display := strings.Join(args[1:], " ")
		if err := shops.Rename(args[0], display); err != nil {
			return err
		}
		fmt.Fprintf(out, "Renamed %s to %s\n", args[0], display)

	case "remove":
		if len(args) != 1 {
			return errUsage
		}
		if err := shops.Remove(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed shop %s\n", args[0])

	case "owner":
		return editOwner(shops, args, out)

	case "rows":
		if len(args) != 2 {
			return errUsage
		}
		s, err := lookup(shops, args[0])
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("rows %q: %w", args[1], err)
		}
		if err := s.SetNumBuyRows(n); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s now has %d slots\n", s.Name, s.Slots())

	case "list":
		if len(args) < 2 || len(args) > 3 {
			return errUsage
		}
		s, err := lookup(shops, args[0])
		if err != nil {
			return err
		}
		g := catalog.RawGood{Kind: args[1], Count: 1}
		if len(args) == 3 {
			if g.Count, err = strconv.Atoi(args[2]); err != nil || g.Count < 1 {
				return fmt.Errorf("count %q: must be a positive integer", args[2])
			}
		}
		slot, err := s.AddGood(g)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Listed %d %s in slot %d of %s\n", g.Count, g.Kind, slot, s.Name)

	case "unlist":
		if len(args) != 2 {
			return errUsage
		}
		s, err := lookup(shops, args[0])
		if err != nil {
			return err
		}
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("slot %q: %w", args[1], err)
		}
		if !s.RemoveGood(slot) {
			return fmt.Errorf("%w: slot %d of %s is empty", shop.ErrInvalidSlot, slot, s.Name)
		}
		fmt.Fprintf(out, "Cleared slot %d of %s\n", slot, s.Name)

	default:
		return errUsage
	}
	return nil
}

func editOwner(shops *shop.List, args []string, out io.Writer) error {
	if len(args) == 0 || (args[0] != "add" && args[0] != "remove") {
		return errUsage
	}

	fs := flag.NewFlagSet("owner", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	admin := fs.Bool("admin", false, "Allow removing the last owner")
	if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 2 {
		return errUsage
	}

	s, err := lookup(shops, fs.Arg(0))
	if err != nil {
		return err
	}
	id, err := uuid.Parse(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("owner %q: %w", fs.Arg(1), err)
	}

	switch args[0] {
	case "add":
		if !s.AddOwner(id) {
			fmt.Fprintf(out, "%s already owns %s\n", id, s.Name)
			return nil
		}
		fmt.Fprintf(out, "Added owner %s to %s\n", id, s.Name)
	case "remove":
		if err := s.RemoveOwner(id, *admin); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed owner %s from %s\n", id, s.Name)
	}
	return nil
}

func lookup(shops *shop.List, name string) (*shop.Shop, error) {
	s, ok := shops.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", shop.ErrShopNotFound, name)
	}
	return s, nil
}
