package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/petcare-booking-platform/internal/session"
)

func TestFormatDateBR(t *testing.T) {
	assert.Equal(t, "10/09/2026", formatDateBR("2026-09-10"))
	assert.Equal(t, "garbage", formatDateBR("garbage"))
}

func TestFormatPriceBR(t *testing.T) {
	assert.Equal(t, "R$ 40,00", formatPriceBR(40))
	assert.Equal(t, "R$ 70,50", formatPriceBR(70.5))
}

func TestCapitalizeFirst(t *testing.T) {
	assert.Equal(t, "Maria", capitalizeFirst("mARIA"))
	assert.Equal(t, "Ágata", capitalizeFirst("ágata"))
	assert.Equal(t, "", capitalizeFirst(""))
}

func TestConfirmationPromptRendersDraft(t *testing.T) {
	temp := session.TempData{
		OwnerName:        "Maria",
		PetName:          "Rex",
		ServiceName:      "Banho",
		ProfessionalName: "Lais",
		Date:             "2026-09-10",
		Time:             "09:00",
	}
	got := confirmationPrompt(temp)
	assert.Contains(t, got, "DATA: 10/09/2026 às 09:00")
	assert.Contains(t, got, "Serviço: Banho")
	assert.Contains(t, got, "Tutor: Maria")
	assert.Contains(t, got, "*1* - Sim\n*2* - Não")
}
