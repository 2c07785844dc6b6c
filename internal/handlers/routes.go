package handlers

import "github.com/go-chi/chi/v5"

// Routes registers the JSON API on r. The caller mounts it under /api.
func Routes(r chi.Router) {
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", ListRecipes)
		r.Post("/", CreateRecipe)
		r.Post("/extract", ExtractRecipe)
		r.Post("/adapt", AdaptRecipe)
		r.Get("/{id}", GetRecipe)
		r.Delete("/{id}", DeleteRecipe)
		r.Get("/{id}/nutrition", RecipeNutrition)
	})

	r.Route("/meal-plans", func(r chi.Router) {
		r.Get("/", ListMealPlans)
		r.Post("/", CreateMealPlan)
		r.Patch("/{id}", UpdateMealPlan)
	})

	r.Route("/suppliers", func(r chi.Router) {
		r.Get("/", ListSuppliers)
		r.Post("/", CreateSupplier)
		r.Get("/{id}", GetSupplier)
		r.Get("/{id}/products", ListSupplierProducts)
		r.Post("/{id}/price-list", UploadPriceList)
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", ListProducts)
		r.Post("/", CreateProduct)
		r.Patch("/{id}", UpdateProduct)
		r.Get("/{id}/compare-prices", ComparePrices)
		r.Get("/{id}/stock", ProductStock)
	})

	r.Route("/shopping-list", func(r chi.Router) {
		r.Get("/", ListShoppingLists)
		r.Post("/", CreateShoppingList)
		r.Patch("/{id}", UpdateShoppingList)
		r.Get("/{id}/print", PrintShoppingList)
		r.Post("/{id}/checkout", CheckoutShoppingList)
	})

	r.Route("/auth/{provider}", func(r chi.Router) {
		r.Get("/", BeginOAuth)
		r.Get("/callback", OAuthCallback)
	})

	r.Post("/users", SignUp)
	r.Route("/session", func(r chi.Router) {
		r.Get("/", CurrentSession)
		r.Post("/", Login)
		r.Delete("/", Logout)
	})
}
