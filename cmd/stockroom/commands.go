package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"stockroom/internal/backup"
	"stockroom/internal/database"
	"stockroom/internal/export"
	"stockroom/internal/models"
	"stockroom/internal/server"
)

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "output raw JSON"}

func requireID(c *cli.Command) (int64, error) {
	id := c.Int64("id")
	if id <= 0 {
		return 0, errors.New("--id must be a positive integer")
	}
	return id, nil
}

func initCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the schema and default data",
		Action: func(ctx context.Context, c *cli.Command) error {
			tables, err := database.ListTables(ctx, a.db)
			if err != nil {
				return err
			}
			fmt.Printf("database ready at %s (%d tables)\n", a.db.Path(), len(tables))
			rows := make([][]string, 0, len(database.Tables))
			for _, t := range database.Tables {
				n, err := database.CountRows(ctx, a.db, t)
				if err != nil {
					return err
				}
				rows = append(rows, []string{t, fmt.Sprint(n)})
			}
			printTable([]string{"TABLE", "ROWS"}, rows)
			return nil
		},
	}
}

func serveCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address, overrides config"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			addr := a.cfg.Server.ListenAddr
			if c.IsSet("addr") {
				addr = c.String("addr")
			}
			srv := &server.App{
				Inventory: a.inventory,
				Backups:   a.backups,
				BackupDir: a.cfg.Backup.Dir,
				Hub:       a.hub,
				Log:       a.log,
			}
			return runServer(ctx, a.log, addr, srv.Handler())
		},
	}
}

func runServer(ctx context.Context, log *zap.Logger, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func productInputFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: required},
		&cli.StringFlag{Name: "sku", Required: required},
		&cli.FloatFlag{Name: "price", Required: required},
		&cli.IntFlag{Name: "quantity", Required: required},
		&cli.Int64Flag{Name: "category-id", Usage: "category id, omit for none"},
	}
}

func productInput(c *cli.Command) models.ProductInput {
	in := models.ProductInput{
		Name:     c.String("name"),
		SKU:      c.String("sku"),
		Price:    c.Float("price"),
		Quantity: c.Int("quantity"),
	}
	if c.IsSet("category-id") {
		id := c.Int64("category-id")
		in.CategoryID = &id
	}
	return in
}

func productFilter(c *cli.Command) models.ProductFilter {
	f := models.ProductFilter{Search: c.String("search")}
	if c.IsSet("category-id") {
		id := c.Int64("category-id")
		f.CategoryID = &id
	}
	return f
}

func productsCommand(a *app) *cli.Command {
	filterFlags := []cli.Flag{
		&cli.StringFlag{Name: "search", Usage: "substring of name or SKU"},
		&cli.Int64Flag{Name: "category-id"},
	}
	return &cli.Command{
		Name:  "products",
		Usage: "Product commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List products",
				Flags: append(filterFlags, jsonFlag),
				Action: func(ctx context.Context, c *cli.Command) error {
					rows, err := a.inventory.Products(ctx, productFilter(c))
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(rows)
					}
					printProducts(rows)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Add a product",
				Flags: productInputFlags(true),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := a.inventory.AddProduct(ctx, c.String("actor"), productInput(c))
					if err != nil {
						return err
					}
					fmt.Printf("added product %d\n", id)
					return nil
				},
			},
			{
				Name:  "edit",
				Usage: "Replace a product's fields",
				Flags: append([]cli.Flag{&cli.Int64Flag{Name: "id", Required: true}}, productInputFlags(true)...),
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					if err := a.inventory.EditProduct(ctx, c.String("actor"), id, productInput(c)); err != nil {
						return err
					}
					fmt.Printf("updated product %d\n", id)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete a product",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					name, err := a.inventory.DeleteProduct(ctx, c.String("actor"), id)
					if err != nil {
						return err
					}
					fmt.Printf("deleted product %d (%s)\n", id, name)
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "Export the product list as CSV or XLSX",
				Flags: append(filterFlags,
					&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or xlsx"},
					&cli.StringFlag{Name: "out", Usage: "output file, stdout when empty"},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					rows, err := a.inventory.Products(ctx, productFilter(c))
					if err != nil {
						return err
					}
					var write func(io.Writer, []models.ProductRow) error
					switch c.String("format") {
					case "csv":
						write = export.WriteCSV
					case "xlsx":
						write = export.WriteXLSX
					default:
						return fmt.Errorf("unknown format %q", c.String("format"))
					}

					out := c.String("out")
					if out == "" {
						return write(os.Stdout, rows)
					}
					f, err := os.Create(out)
					if err != nil {
						return err
					}
					if err := write(f, rows); err != nil {
						f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					fmt.Fprintf(os.Stderr, "wrote %d products to %s\n", len(rows), out)
					return nil
				},
			},
		},
	}
}

func categoriesCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "Category commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List categories",
				Flags: []cli.Flag{jsonFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					cats, err := a.inventory.Categories(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(cats)
					}
					printCategories(cats)
					return nil
				},
			},
			{
				Name:      "add",
				Usage:     "Add a category",
				ArgsUsage: "<name>",
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := a.inventory.AddCategory(ctx, c.Args().First())
					if err != nil {
						return err
					}
					fmt.Printf("added category %d\n", id)
					return nil
				},
			},
		},
	}
}

func usersCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "User account commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List accounts",
				Flags: []cli.Flag{jsonFlag},
				Action: func(ctx context.Context, c *cli.Command) error {
					users, err := a.inventory.Users(ctx)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(users)
					}
					printUsers(users)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: models.RoleUser, Usage: "user or admin"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := a.inventory.AddUser(ctx, c.String("username"), c.String("password"), c.String("role"))
					if err != nil {
						return err
					}
					fmt.Printf("added user %d\n", id)
					return nil
				},
			},
			{
				Name:  "update",
				Usage: "Change an account's password or role",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "id", Required: true},
					&cli.StringFlag{Name: "password"},
					&cli.StringFlag{Name: "role"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					var upd models.UserUpdate
					if c.IsSet("password") {
						p := c.String("password")
						upd.Password = &p
					}
					if c.IsSet("role") {
						r := c.String("role")
						upd.Role = &r
					}
					if upd.Empty() {
						return errors.New("nothing to update: pass --password and/or --role")
					}
					if err := a.inventory.UpdateUser(ctx, id, upd); err != nil {
						return err
					}
					fmt.Printf("updated user %d\n", id)
					return nil
				},
			},
			{
				Name:  "delete",
				Usage: "Delete an account",
				Flags: []cli.Flag{&cli.Int64Flag{Name: "id", Required: true}},
				Action: func(ctx context.Context, c *cli.Command) error {
					id, err := requireID(c)
					if err != nil {
						return err
					}
					if err := a.inventory.DeleteUser(ctx, id); err != nil {
						return err
					}
					fmt.Printf("deleted user %d\n", id)
					return nil
				},
			},
		},
	}
}

func loginCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Check a username and password",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			user, err := a.inventory.Login(ctx, c.String("username"), c.String("password"))
			if err != nil {
				return err
			}
			if user == nil {
				return errors.New("invalid username or password")
			}
			fmt.Printf("logged in as %s (%s)\n", user.Username, user.Role)
			return nil
		},
	}
}

func logsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "Show the product action log, newest first",
		Flags: []cli.Flag{jsonFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			logs, err := a.inventory.Logs(ctx)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(logs)
			}
			printLogs(logs)
			return nil
		},
	}
}

func backupCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "backup",
		Usage: "Copy the database into the backup directory",
		Flags: []cli.Flag{&cli.StringFlag{Name: "dir", Usage: "backup directory, overrides config"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			dir := a.cfg.Backup.Dir
			if c.IsSet("dir") {
				dir = c.String("dir")
			}
			path, err := a.backups.Backup(ctx, dir)
			if err != nil {
				return err
			}
			fmt.Printf("backup written to %s\n", path)
			return nil
		},
	}
}

func backupsCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "backups",
		Usage: "List backups, newest first",
		Flags: []cli.Flag{jsonFlag},
		Action: func(ctx context.Context, c *cli.Command) error {
			list, err := backup.List(a.cfg.Backup.Dir)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(list)
			}
			rows := make([][]string, 0, len(list))
			for _, b := range list {
				rows = append(rows, []string{b.Filename, fmt.Sprint(b.Size), b.CreatedAt.Format("2006-01-02 15:04:05")})
			}
			printTable([]string{"FILE", "SIZE", "CREATED"}, rows)
			return nil
		},
	}
}

func restoreCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Overwrite the database with a backup file",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, c *cli.Command) error {
			src := c.Args().First()
			if src == "" {
				return errors.New("restore needs a backup file")
			}
			// A bare file name refers to the configured backup directory.
			if filepath.Base(src) == src {
				if _, err := os.Stat(src); errors.Is(err, os.ErrNotExist) {
					src = filepath.Join(a.cfg.Backup.Dir, src)
				}
			}
			if err := a.backups.Restore(ctx, src); err != nil {
				return err
			}
			fmt.Printf("restored %s\n", src)
			return nil
		},
	}
}
