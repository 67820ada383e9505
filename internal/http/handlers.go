package http

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/auth"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/domain"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/pagination"
	"github.com/ANIKETSHETTY47/utility-metering-backoffice/internal/service"
)

func Register(app *fiber.App, svcs *service.Services, idp *auth.Provider) {
	registerAuth(app, idp)

	g := app.Group("/api", identify(idp))
	mount(g, "/customers", svcs.Customers, customerView)
	mount(g, "/metertypes", svcs.MeterTypes, meterTypeView)
	mount(g, "/meters", svcs.Meters, meterView)
	mount(g, "/asset-account-links", svcs.AccountAssetLinks, accountAssetLinkView)
	mount(g, "/consumptions", svcs.Consumptions, consumptionView)
	mount(g, "/rates", svcs.Rates, rateView)
}

type edge struct {
	Cursor string `json:"cursor"`
	Node   any    `json:"node"`
}

type pageInfo struct {
	StartCursor string `json:"start_cursor"`
	EndCursor   string `json:"end_cursor"`
	HasNextPage bool   `json:"has_next_page"`
}

// mount wires <entity>_read, read by id, _create, _update and _delete for
// one resource.
func mount[E domain.Entity, I service.Input[E]](r fiber.Router, path string, res *service.Resource[E, I], view func(*E) any) {
	g := r.Group(path)

	g.Get("/", func(c *fiber.Ctx) error {
		criteria, err := url.ParseQuery(string(c.Request().URI().QueryString()))
		if err != nil {
			return fail(c, domain.ErrValidation)
		}
		spec := pagination.PageSpec{After: criteria.Get("after")}
		if first := criteria.Get("first"); first != "" {
			if spec.First, err = strconv.Atoi(first); err != nil {
				return fail(c, domain.ErrValidation)
			}
		}
		page, err := res.Read(c.UserContext(), caller(c), criteria, spec)
		if err != nil {
			return fail(c, err)
		}
		edges := make([]edge, len(page.Edges))
		for i := range page.Edges {
			edges[i] = edge{Cursor: page.Edges[i].Cursor, Node: view(&page.Edges[i].Node)}
		}
		return c.JSON(fiber.Map{
			"edges": edges,
			"page_info": pageInfo{
				StartCursor: page.PageInfo.StartCursor,
				EndCursor:   page.PageInfo.EndCursor,
				HasNextPage: page.PageInfo.HasNextPage,
			},
		})
	})

	g.Get("/:id", func(c *fiber.Ctx) error {
		e, err := res.Get(c.UserContext(), caller(c), pathID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(e))
	})

	g.Post("/", func(c *fiber.Ctx) error {
		id := caller(c)
		var in I
		if err := parse(c, &in); err != nil {
			if denied := res.Allowed(id, auth.Add); denied != nil {
				return fail(c, denied)
			}
			return fail(c, err)
		}
		e, err := res.Create(c.UserContext(), id, in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(view(e))
	})

	g.Put("/:id", func(c *fiber.Ctx) error {
		id := caller(c)
		var in I
		if err := parse(c, &in); err != nil {
			if denied := res.Allowed(id, auth.Change); denied != nil {
				return fail(c, denied)
			}
			return fail(c, err)
		}
		e, err := res.Update(c.UserContext(), id, pathID(c), in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(e))
	})

	g.Delete("/:id", func(c *fiber.Ctx) error {
		e, err := res.Delete(c.UserContext(), caller(c), pathID(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view(e))
	})
}

// pathID returns the :id parameter unescaped. Standard base64 ids may
// contain '/', which clients send as %2F.
func pathID(c *fiber.Ctx) string {
	raw := c.Params("id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}
