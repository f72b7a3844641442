package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ekklesia/core"
	"github.com/trezcool/ekklesia/core/finance"
)

type financeApi struct {
	svc      *finance.Service
	validate *validator.Validate
}

func registerFinanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *finance.Service, validate *validator.Validate) {
	api := financeApi{svc: svc, validate: validate}

	fg := g.Group("/finance", jwt)

	cg := fg.Group("/categories")
	cg.GET("", api.queryCategories)
	cg.POST("", api.createCategory)
	cdg := cg.Group("/:id", objectMiddleware(api.loadCategory))
	cdg.GET("", api.retrieveCategory)
	cdg.PUT("", api.updateCategory)
	cdg.DELETE("", api.destroyCategory)

	ag := fg.Group("/accounts")
	ag.GET("", api.queryAccounts)
	ag.POST("", api.createAccount)
	adg := ag.Group("/:id", objectMiddleware(api.loadAccount))
	adg.GET("", api.retrieveAccount)
	adg.PUT("", api.updateAccount)
	adg.DELETE("", api.destroyAccount)

	tg := fg.Group("/transactions")
	tg.GET("", api.queryTransactions)
	tg.POST("", api.createTransaction)
	tdg := tg.Group("/:id", objectMiddleware(api.loadTransaction))
	tdg.GET("", api.retrieveTransaction)
	tdg.PUT("", api.updateTransaction)
	tdg.DELETE("", api.destroyTransaction)
	tdg.POST("/pay", api.payTransaction)

	fg.GET("/reports", api.report)
}

func (api *financeApi) loadCategory(ctx echo.Context, sess core.Session, id string) (finance.Category, error) {
	return api.svc.GetCategory(ctx.Request().Context(), sess, id)
}

func (api *financeApi) loadAccount(ctx echo.Context, sess core.Session, id string) (finance.BankAccount, error) {
	return api.svc.GetBankAccount(ctx.Request().Context(), sess, id)
}

func (api *financeApi) loadTransaction(ctx echo.Context, sess core.Session, id string) (finance.Transaction, error) {
	return api.svc.GetTransaction(ctx.Request().Context(), sess, id)
}

// Categories

func (api *financeApi) queryCategories(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter finance.CategoryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}

	categories, err := api.svc.QueryCategories(ctx.Request().Context(), sess, filter)
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	return ctx.JSON(http.StatusOK, categories)
}

func (api *financeApi) createCategory(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data finance.NewCategory
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCategory(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *financeApi) retrieveCategory(ctx echo.Context) error {
	c, err := getContextObject[finance.Category](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *financeApi) updateCategory(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	c, err := getContextObject[finance.Category](ctx)
	if err != nil {
		return err
	}

	var data finance.UpdateCategory
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.UpdateCategory(ctx.Request().Context(), sess, c, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *financeApi) destroyCategory(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	c, err := getContextObject[finance.Category](ctx)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteCategory(ctx.Request().Context(), sess, c.ID); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Bank accounts

func (api *financeApi) queryAccounts(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	accounts, err := api.svc.QueryBankAccounts(ctx.Request().Context(), sess)
	if err != nil {
		return errors.Wrap(err, "querying bank accounts")
	}
	return ctx.JSON(http.StatusOK, accounts)
}

func (api *financeApi) createAccount(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data finance.NewBankAccount
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err := api.svc.CreateBankAccount(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating bank account")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *financeApi) retrieveAccount(ctx echo.Context) error {
	a, err := getContextObject[finance.BankAccount](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *financeApi) updateAccount(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	a, err := getContextObject[finance.BankAccount](ctx)
	if err != nil {
		return err
	}

	var data finance.UpdateBankAccount
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	a, err = api.svc.UpdateBankAccount(ctx.Request().Context(), sess, a, data)
	if err != nil {
		return errors.Wrap(err, "updating bank account")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *financeApi) destroyAccount(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	a, err := getContextObject[finance.BankAccount](ctx)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteBankAccount(ctx.Request().Context(), sess, a.ID); err != nil {
		return errors.Wrap(err, "deleting bank account")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Transactions

func (api *financeApi) queryTransactions(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter finance.QueryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()

	txs, err := api.svc.QueryTransactions(ctx.Request().Context(), sess, filter, bindOrdering(ctx)...)
	if err != nil {
		return errors.Wrap(err, "querying transactions")
	}
	return ctx.JSON(http.StatusOK, txs)
}

func (api *financeApi) createTransaction(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var data finance.NewTransaction
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	tx, err := api.svc.CreateTransaction(ctx.Request().Context(), sess, data)
	if err != nil {
		return errors.Wrap(err, "creating transaction")
	}
	return ctx.JSON(http.StatusCreated, tx)
}

func (api *financeApi) retrieveTransaction(ctx echo.Context) error {
	tx, err := getContextObject[finance.Transaction](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tx)
}

func (api *financeApi) updateTransaction(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	tx, err := getContextObject[finance.Transaction](ctx)
	if err != nil {
		return err
	}

	var data finance.NewTransaction
	if err = bindBody(ctx, &data); err != nil {
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	tx, err = api.svc.UpdateTransaction(ctx.Request().Context(), sess, tx, data)
	if err != nil {
		return errors.Wrap(err, "updating transaction")
	}
	return ctx.JSON(http.StatusOK, tx)
}

func (api *financeApi) destroyTransaction(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	tx, err := getContextObject[finance.Transaction](ctx)
	if err != nil {
		return err
	}

	if err = api.svc.DeleteTransaction(ctx.Request().Context(), sess, tx.ID); err != nil {
		return errors.Wrap(err, "deleting transaction")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *financeApi) payTransaction(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	tx, err := getContextObject[finance.Transaction](ctx)
	if err != nil {
		return err
	}

	var data finance.PayRequest
	if err = bindBody(ctx, &data); err != nil { // empty bodies pay today
		return err
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	tx, err = api.svc.Pay(ctx.Request().Context(), sess, tx, data)
	if err != nil {
		return errors.Wrap(err, "paying transaction")
	}
	return ctx.JSON(http.StatusOK, tx)
}

// Reports

func (api *financeApi) report(ctx echo.Context) error {
	sess, err := getContextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	var filter finance.QueryFilter
	if err = bindQuery(ctx, &filter); err != nil {
		return err
	}
	filter.Clean()

	report, err := api.svc.Report(ctx.Request().Context(), sess, filter)
	if err != nil {
		return errors.Wrap(err, "building report")
	}
	return ctx.JSON(http.StatusOK, report)
}
