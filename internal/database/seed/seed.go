package seed

import (
	"errors"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/article_generator/internal/models"
	"github.com/chynybekuuludastan/article_generator/internal/service/llm/prompts"
)

// SeedBuiltinTemplate inserts the builtin writing-style template if it is
// missing. It is the last fallback when no default template is configured.
func SeedBuiltinTemplate(db *gorm.DB) error {
	var existing models.PromptTemplate
	err := db.Where("is_builtin = ?", true).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return db.Create(&models.PromptTemplate{
		Name:      prompts.BuiltinTemplateName,
		Content:   prompts.DefaultStyleTemplate,
		IsDefault: true,
		IsBuiltin: true,
	}).Error
}

// RemoveBuiltinTemplate deletes the seeded builtin template.
func RemoveBuiltinTemplate(db *gorm.DB) error {
	return db.Where("is_builtin = ?", true).Delete(&models.PromptTemplate{}).Error
}

// SeedDemoProducts inserts a pair of sample products for local testing when
// the products table is empty.
func SeedDemoProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{
			ItemID:        "demo-1",
			Name:          "象印 不鏽鋼真空保溫瓶 480ml",
			Price:         990,
			OriginalPrice: 1290,
			Discount:      "23% off",
			Rating:        4.8,
			Sold:          2300,
			ShopName:      "象印官方旗艦店",
			Description:   "<p>一體式上蓋，<b>保溫 6 小時</b>，杯口可直接飲用。</p>",
			ProductURL:    "https://shopee.tw/product/demo-1",
			Images:        []string{"https://picsum.photos/seed/demo1a/800/800", "https://picsum.photos/seed/demo1b/800/800"},
		},
		{
			ItemID:      "demo-2",
			Name:        "膳魔師 JNL 超輕量保溫瓶 500ml",
			Price:       1290,
			Rating:      4.7,
			Sold:        1800,
			ShopName:    "膳魔師專賣店",
			Description: "超輕量 210g，保冷 12 小時。",
			ProductURL:  "https://shopee.tw/product/demo-2",
			Images:      []string{"https://picsum.photos/seed/demo2a/800/800"},
		},
	}
	return db.Create(&products).Error
}
