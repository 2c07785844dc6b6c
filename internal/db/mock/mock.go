package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mealminder/internal/db"
	applog "mealminder/internal/log"
	"mealminder/models"
)

// DemoPassword is the password of the seeded demo account.
const DemoPassword = "mealminder"

// Open returns an empty, migrated in-memory sqlite database. Every call gets its
// own database so concurrent callers never share rows.
func Open(ctx context.Context) (*gorm.DB, error) {
	cfg := db.GormConfig()
	cfg.Logger = cfg.Logger.LogMode(logger.Silent)

	dsn := fmt.Sprintf("file:mealminder-%s?mode=memory&cache=shared", uuid.NewString())
	database, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; a single connection avoids "table is locked" errors.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(database.WithContext(ctx)); err != nil {
		return nil, err
	}
	return database, nil
}

// New returns an in-memory sqlite database seeded with representative meal-planning data.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	database, err := Open(ctx)
	if err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")
	tx := database.WithContext(ctx)

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &models.User{
		Name:               "Robin Demo",
		Email:              "demo@mealminder.app",
		PasswordHash:       string(password),
		DietaryPreferences: datatypes.JSONSlice[string]{"vegetarian"},
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}

	image := "https://images.mealminder.app/shakshuka.jpg"
	shakshuka := models.Recipe{
		Name:        "Shakshuka",
		Description: "Eggs poached in a spiced tomato and pepper sauce.",
		Ingredients: datatypes.JSONSlice[models.Ingredient]{
			{Name: "Olive oil", Amount: 2, Unit: "tbsp"},
			{Name: "Eggs", Amount: 4, Unit: "pcs"},
			{Name: "Chopped tomatoes", Amount: 400, Unit: "g"},
			{Name: "Red pepper", Amount: 1, Unit: "pcs"},
		},
		Instructions: datatypes.JSONSlice[models.Instruction]{
			{StepNumber: 1, Content: "Soften the pepper in olive oil."},
			{StepNumber: 2, Content: "Add tomatoes and simmer for ten minutes."},
			{StepNumber: 3, Content: "Crack in the eggs, cover and cook until set."},
		},
		NutritionInfo: datatypes.NewJSONType(models.NutritionInfo{
			Calories: 320, Protein: 18, Carbs: 14, Fat: 21,
			Vitamins: map[string]float64{"vitaminC": 95},
			Minerals: map[string]float64{"sodium": 780, "iron": 4},
		}),
		ImageURL:  &image,
		PrepTime:  10,
		CookTime:  20,
		TotalTime: 30,
		UserID:    &user.ID,
	}
	porridge := models.Recipe{
		Name:        "Overnight oats",
		Description: "Oats soaked in milk with berries.",
		Ingredients: datatypes.JSONSlice[models.Ingredient]{
			{Name: "Rolled oats", Amount: 60, Unit: "g"},
			{Name: "Milk", Amount: 200, Unit: "ml"},
			{Name: "Blueberries", Amount: 50, Unit: "g"},
		},
		Instructions: datatypes.JSONSlice[models.Instruction]{
			{StepNumber: 1, Content: "Combine everything in a jar and refrigerate overnight."},
		},
		NutritionInfo: datatypes.NewJSONType(models.NutritionInfo{
			Calories: 380, Protein: 14, Carbs: 58, Fat: 9,
			Vitamins: map[string]float64{},
			Minerals: map[string]float64{"calcium": 250},
		}),
		PrepTime:  5,
		TotalTime: 5,
		UserID:    &user.ID,
	}
	for _, recipe := range []*models.Recipe{&shakshuka, &porridge} {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
	}

	google := "google"
	suppliers := []*models.Supplier{
		{Name: "FreshMart", Description: "Neighbourhood grocer", Website: "https://freshmart.example", Active: true, CommissionRate: 0.05},
		{Name: "GreenGrocer", Description: "Organic produce boxes", Website: "https://greengrocer.example", Active: true, CommissionRate: 0.04, OAuthProvider: &google},
		{Name: "Harvest Co", Description: "Wholesale pantry staples", Website: "https://harvest.example", Active: true, CommissionRate: 0.03},
	}
	for _, supplier := range suppliers {
		if err := tx.Create(supplier).Error; err != nil {
			return err
		}
	}

	oil := models.CatalogKey("Olive oil 500ml")
	products := []*models.Product{
		{SupplierID: suppliers[0].ID, Name: "Olive oil 500ml", CatalogKey: oil, Category: "pantry", Unit: "bottle", Price: 500, Stock: 12},
		{SupplierID: suppliers[1].ID, Name: "Olive oil 500ml", CatalogKey: oil, Category: "pantry", Unit: "bottle", Price: 450, Stock: 0},
		{SupplierID: suppliers[2].ID, Name: "Olive oil 500ml", CatalogKey: oil, Category: "pantry", Unit: "bottle", Price: 600, Stock: 40},
		{SupplierID: suppliers[0].ID, Name: "Free range eggs (6)", CatalogKey: models.CatalogKey("Free range eggs (6)"), Category: "dairy", Unit: "box", Price: 289, Stock: 30},
		{SupplierID: suppliers[1].ID, Name: "Rolled oats 1kg", CatalogKey: models.CatalogKey("Rolled oats 1kg"), Category: "pantry", Unit: "bag", Price: 199, Stock: 8},
	}
	for _, product := range products {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	history := []models.PriceHistory{
		{ProductID: products[0].ID, Price: 550, Source: models.PriceSourceImport, RecordedAt: now.Add(-72 * time.Hour)},
		{ProductID: products[0].ID, Price: 520, Source: models.PriceSourceAPI, RecordedAt: now.Add(-24 * time.Hour)},
		{ProductID: products[1].ID, Price: 500, Source: models.PriceSourceImport, RecordedAt: now.Add(-48 * time.Hour)},
	}
	if err := tx.Create(&history).Error; err != nil {
		return err
	}

	plan := models.MealPlan{
		UserID:  &user.ID,
		Date:    now.Format(models.DateLayout),
		Recipes: datatypes.NewJSONType(models.MealSlots{Breakfast: &porridge.ID, Dinner: &shakshuka.ID}),
	}
	if err := tx.Create(&plan).Error; err != nil {
		return err
	}

	list := models.ShoppingList{
		UserID: &user.ID,
		Items: datatypes.JSONSlice[models.ShoppingListItem]{
			{ProductID: products[1].ID, Quantity: 1, SupplierID: suppliers[1].ID},
			{ProductID: products[3].ID, Quantity: 2, SupplierID: suppliers[0].ID},
		},
		Status: models.ShoppingListDraft,
	}
	if err := tx.Create(&list).Error; err != nil {
		return err
	}

	applog.Debug(ctx, "mock database seeded")
	return nil
}
