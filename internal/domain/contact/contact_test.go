package contact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	t.Run("trims all fields", func(t *testing.T) {
		rec, ok := Validate(Record{
			FirstName:   "  Иван ",
			LastName:    " Иванов",
			Phone:       " +79161234567 ",
			Email:       " ivan@test.ru ",
			CompanyName: " Рога и Копыта ",
		})

		assert.True(t, ok)
		assert.Equal(t, "Иван", rec.FirstName)
		assert.Equal(t, "Иванов", rec.LastName)
		assert.Equal(t, "+79161234567", rec.Phone)
		assert.Equal(t, "ivan@test.ru", rec.Email)
		assert.Equal(t, "Рога и Копыта", rec.CompanyName)
	})

	t.Run("rejects record without any name", func(t *testing.T) {
		_, ok := Validate(Record{Phone: "+79161234567", Email: "a@b.co"})
		assert.False(t, ok)

		_, ok = Validate(Record{FirstName: "   ", LastName: "\t"})
		assert.False(t, ok)
	})

	t.Run("first name alone is enough", func(t *testing.T) {
		rec, ok := Validate(Record{FirstName: "Иван"})
		assert.True(t, ok)
		assert.Equal(t, "Иван", rec.FirstName)
	})

	t.Run("last name alone is enough", func(t *testing.T) {
		_, ok := Validate(Record{LastName: "Иванов"})
		assert.True(t, ok)
	})

	t.Run("drops malformed email without rejecting the record", func(t *testing.T) {
		rec, ok := Validate(Record{FirstName: "Иван", Email: "not-an-email"})
		assert.True(t, ok)
		assert.Empty(t, rec.Email)
	})

	t.Run("keeps valid email", func(t *testing.T) {
		rec, ok := Validate(Record{FirstName: "Иван", Email: "a@b.co"})
		assert.True(t, ok)
		assert.Equal(t, "a@b.co", rec.Email)
	})

	t.Run("is idempotent", func(t *testing.T) {
		first, ok := Validate(Record{
			FirstName: " Иван", LastName: "Иванов ",
			Phone: "89161234567", Email: "ivan@test.ru", CompanyName: "ООО Тест",
		})
		assert.True(t, ok)

		second, ok := Validate(first)
		assert.True(t, ok)
		assert.Equal(t, first, second)
	})
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "ivan@test.ru", "user.name+tag@example.org", "x_1%y@sub.domain.com"}
	for _, email := range valid {
		assert.True(t, IsValidEmail(email), email)
	}

	invalid := []string{"not-an-email", "@b.co", "a@b", "a@b.c", "a b@c.de", "a@b..", ""}
	for _, email := range invalid {
		assert.False(t, IsValidEmail(email), email)
	}
}

func TestRecordHelpers(t *testing.T) {
	assert.True(t, Record{}.IsEmpty())
	assert.False(t, Record{Phone: "123"}.IsEmpty())

	assert.True(t, Record{FirstName: "Иван"}.HasName())
	assert.True(t, Record{LastName: "Иванов"}.HasName())
	assert.False(t, Record{FirstName: " "}.HasName())

	assert.Equal(t, "Иван Иванов", Record{FirstName: "Иван", LastName: "Иванов"}.FullName())
	assert.Equal(t, "Иван", Record{FirstName: "Иван"}.FullName())
}
