// Command useradd creates a jobtracker account from the terminal.
//
//	useradd -u alice -d postgres://...
//
// The password is read from the terminal without echo.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/flagx"
	"github.com/dmitrijs2005/jobtracker/internal/server/config"
	"github.com/dmitrijs2005/jobtracker/internal/server/models"
	"github.com/dmitrijs2005/jobtracker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/dmitrijs2005/jobtracker/internal/server/validation"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.LoadConfig()
	if cfg.DatabaseDSN == "" {
		return errors.New("database DSN is not set (use -d or DATABASE_URI)")
	}

	in := bufio.NewReader(os.Stdin)

	userName := flagx.StringFlag(os.Args[1:], "u", "user")
	if userName == "" {
		fmt.Print("User name: ")
		line, err := in.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read user name: %w", err)
		}
		userName = strings.TrimSpace(line)
	}

	password, err := readPassword(in)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	us, err := services.NewUserService(db, rm)
	if err != nil {
		return err
	}

	u, err := us.Register(ctx, models.Credentials{UserName: userName, Password: string(password)})
	if err != nil {
		if fields, ok := validation.Translate(err); ok {
			for _, f := range fields {
				fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Message)
			}
			return errors.New("user not created")
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("user %q already exists", userName)
		}
		return err
	}

	fmt.Printf("User %s created (id %s)\n", u.UserName, u.ID)
	return nil
}

func readPassword(in *bufio.Reader) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return nil, fmt.Errorf("read password: %w", err)
		}
		return []byte(strings.TrimRight(line, "\r\n")), nil
	}

	fmt.Print("Password: ")
	p1, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	p2, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		common.WipeByteArray(p1)
		return nil, fmt.Errorf("read password: %w", err)
	}
	defer common.WipeByteArray(p2)

	if string(p1) != string(p2) {
		common.WipeByteArray(p1)
		return nil, errors.New("the passwords entered do not match")
	}
	return p1, nil
}
