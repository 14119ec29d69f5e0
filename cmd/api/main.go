package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/config"
	appHTTP "github.com/expensehub/expense-backend-go/internal/handler/http"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/expensehub/expense-backend-go/internal/pkg/exchange"
	"github.com/expensehub/expense-backend-go/internal/pkg/jwt"
	"github.com/expensehub/expense-backend-go/internal/repository/postgresql"
	approvalService "github.com/expensehub/expense-backend-go/internal/service/approval"
	ruleService "github.com/expensehub/expense-backend-go/internal/service/approvalrule"
	serviceAuth "github.com/expensehub/expense-backend-go/internal/service/auth"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
	dashboardService "github.com/expensehub/expense-backend-go/internal/service/dashboard"
	expenseService "github.com/expensehub/expense-backend-go/internal/service/expense"
	userService "github.com/expensehub/expense-backend-go/internal/service/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(context.Background(), dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	userRepo := postgresql.NewUserRepository(db)
	companyRepo := postgresql.NewCompanyRepository(db)
	JWTRepository := postgresql.NewJWTRepository(db)
	expenseRepo := postgresql.NewExpenseRepository(db)
	stepRepo := postgresql.NewApprovalStepRepository(db)
	ruleRepo := postgresql.NewApprovalRuleRepository(db)
	dashboardRepo := postgresql.NewDashboardRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration)

	var exchangeOpts []exchange.Option
	if cfg.Exchange.RatesBaseURL != "" {
		exchangeOpts = append(exchangeOpts, exchange.WithRatesBaseURL(cfg.Exchange.RatesBaseURL))
	}
	if cfg.Exchange.CountriesURL != "" {
		exchangeOpts = append(exchangeOpts, exchange.WithCountriesURL(cfg.Exchange.CountriesURL))
	}
	currencySvc := currency.NewCurrencyService(exchange.NewClient(exchangeOpts...))

	authSvc := serviceAuth.NewAuthService(db, userRepo, companyRepo, JWTRepository, JWTService, currencySvc)
	userSvc := userService.NewUserService(db, userRepo, companyRepo)
	expenseSvc := expenseService.NewExpenseService(db, expenseRepo, stepRepo, ruleRepo, userRepo, companyRepo, currencySvc)
	approvalSvc := approvalService.NewApprovalService(db, ruleRepo, expenseRepo, stepRepo, userRepo, companyRepo, dashboardRepo, currencySvc)
	ruleSvc := ruleService.NewApprovalRuleService(db, ruleRepo, userRepo)
	dashboardSvc := dashboardService.NewDashboardService(dashboardRepo, userRepo)

	authHandler := appHTTP.NewAuthHandler(JWTService, authSvc)
	userHandler := appHTTP.NewUserHandler(userSvc)
	expenseHandler := appHTTP.NewExpenseHandler(expenseSvc)
	approvalHandler := appHTTP.NewApprovalHandler(approvalSvc)
	ruleHandler := appHTTP.NewApprovalRuleHandler(ruleSvc)
	countryHandler := appHTTP.NewCountryHandler(currencySvc)
	dashboardHandler := appHTTP.NewDashboardHandler(dashboardSvc)

	router := appHTTP.NewRouter(
		JWTService,
		authHandler,
		userHandler,
		expenseHandler,
		approvalHandler,
		ruleHandler,
		countryHandler,
		dashboardHandler,
		cfg.App.Env,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
