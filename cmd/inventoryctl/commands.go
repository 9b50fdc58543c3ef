package main

import (
	"encoding/json"
	"fmt"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/pkg/database"

	"github.com/spf13/cobra"
)

var (
	resetEmail    string
	resetPassword string

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load demo users, categories, products and movements",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			userRepo := repository.NewUserRepo(db)
			categoryRepo := repository.NewCategoryRepo(db)
			productRepo := repository.NewProductRepo(db)
			stock := service.NewStockService(db, productRepo, repository.NewMovementRepo(db), nil, nil, nil, log)
			seeder := service.NewSeeder(userRepo, categoryRepo, productRepo, stock, log)

			report, err := seeder.SeedDemo(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}

	resetPasswordCmd = &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, log, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			users := service.NewUserService(repository.NewUserRepo(db), log)
			if err := users.ResetPassword(cmd.Context(), resetEmail, resetPassword); err != nil {
				return err
			}
			cmd.Printf("Password for %s has been reset\n", resetEmail)
			return nil
		},
	}

	checkAdminCmd = &cobra.Command{
		Use:   "check-admin",
		Short: "List admin accounts; fails when there are none",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			users, err := repository.NewUserRepo(db).FindAll(cmd.Context())
			if err != nil {
				return err
			}
			admins := 0
			for _, u := range users {
				if u.Role == model.RoleAdmin {
					admins++
					cmd.Printf("%s\t%s\t%s\n", u.ID, u.Email, u.Name)
				}
			}
			if admins == 0 {
				return fmt.Errorf("no admin account among %d users", len(users))
			}
			return nil
		},
	}
)

func init() {
	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "", "account email")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "new password (min 6 characters)")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}
