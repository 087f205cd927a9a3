package dialogue

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wolfman30/petcare-booking-platform/internal/catalog"
	"github.com/wolfman30/petcare-booking-platform/internal/schedule"
	"github.com/wolfman30/petcare-booking-platform/internal/session"
)

// Customer-facing copy. All of it is Portuguese and formatted for WhatsApp
// (asterisks render bold).
const (
	msgMenu = "Olá! Sou sua assistente virtual.\n\n" +
		"Digite o número da opção desejada:\n\n" +
		"*1* - Novo agendamento\n" +
		"*2* - Cancelar Agendamento\n" +
		"*3* - Falar com Atendente"

	msgHandoff = "📞 Um atendente entrará em contato em breve!\n\n" +
		"Nosso horário de atendimento:\n" +
		"🕐 Seg-Sex: 8h às 18h\n" +
		"🕐 Sábado: 8h às 12h\n\n" +
		"O atendimento automático será pausado por 60 minutos."

	msgAskOwnerName  = "Olá! Para começar, qual o seu nome?"
	msgAskFirstPet   = "Ótimo! Agora, qual o nome do seu pet?"
	msgAskNewPet     = "Qual o nome do novo pet?"
	msgAskPetName    = "Qual o nome do seu pet?"
	msgNoPetsYet     = "Você não tem pets cadastrados. Qual o nome do seu pet?"
	msgInvalidPet    = "Por favor, digite um número válido da lista de pets."
	msgAskManualDate = "Por favor, informe a data desejada no formato DD/MM/AAAA:"

	msgInvalidService      = "Por favor, digite um número válido do serviço ou *voltar* para retornar ao menu."
	msgInvalidProfessional = "Por favor, digite um número válido do profissional."
	msgInvalidDate         = "Por favor, escolha uma data válida da lista ou digite *voltar*."
	msgInvalidTime         = "Por favor, escolha um horário válido da lista ou digite *voltar*."
	msgInvalidConfirm      = "Por favor, digite *1* para confirmar ou *2* para cancelar."

	msgManualDateFormat      = "Formato de data inválido. Por favor, use DD/MM/AAAA ou digite *voltar*."
	msgManualDatePast        = "Não é possível agendar para datas passadas. Por favor, escolha uma data futura no formato DD/MM/AAAA."
	msgManualDateUnavailable = "Este dia da semana não está disponível para agendamento. Por favor, escolha outra data."

	msgNoDates = "Não há datas disponíveis para agendamento nos próximos dias. Por favor, tente mais tarde ou entre em contato."
	msgNoTimes = "Não há horários disponíveis para esta data com este profissional. Por favor, escolha outra data."

	msgSlotTaken = "⚠️ Esse horário acabou de ser reservado por outro cliente. Por favor, escolha outro horário:"

	msgBookingFailed   = "❌ Não foi possível concluir o agendamento. Tente novamente."
	msgBookingDropped  = "Agendamento cancelado. "
	msgAppointmentsErr = "❌ Ocorreu um erro ao buscar seus agendamentos. Tente novamente mais tarde."

	msgNoFutureAppointments = "Você não possui agendamentos futuros para cancelar."
	msgInvalidCancelChoice  = "Opção inválida. Por favor, digite o número de um dos agendamentos listados."
	msgCancelAborted        = "Cancelamento não confirmado. Voltando ao menu."
	msgCancelFailed         = "❌ Não foi possível cancelar o agendamento. Tente novamente."

	msgReminderThanks   = "Obrigado pela confirmação!"
	msgReminderCanceled = "✅ Agendamento cancelado com sucesso!"
	msgInvalidReminder  = "Por favor, digite 1 para confirmar ou 2 para cancelar o agendamento."
)

func servicesMessage(services []catalog.Service) string {
	var b strings.Builder
	b.WriteString("Qual serviço deseja agendar?\n\nDigite o número correspondente ao serviço que deseja agendar, ou digite *voltar*:\n\n")
	for _, s := range services {
		fmt.Fprintf(&b, "*%d* - %s\n", s.ID, s.Name)
	}
	return b.String()
}

func petsMessage(pets []string) string {
	var b strings.Builder
	b.WriteString("Qual dos seus pets deseja agendar?\n\n")
	for i, name := range pets {
		fmt.Fprintf(&b, "*%d* - %s\n", i+1, name)
	}
	b.WriteString("\n*0* - Adicionar outro pet")
	return b.String()
}

func professionalsMessage(professionals []catalog.Professional) string {
	var b strings.Builder
	b.WriteString("Com qual profissional deseja agendar?\n\n")
	for _, p := range professionals {
		fmt.Fprintf(&b, "*%d* - %s\n", p.ID, p.Name)
	}
	return b.String()
}

func datesMessage(options []schedule.DateOption) string {
	var b strings.Builder
	b.WriteString("Qual a data que deseja marcar?\nDigite em qual data deseja agendar, *6* para outras datas ou *voltar*:\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "*%d* - %s\n%s\n\n", i+1, opt.DayLabel, opt.Display)
	}
	b.WriteString("*6* - Data específica\nInformar outra data")
	return b.String()
}

func timesMessage(dateDisplay string, times []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Agendamento em: *%s*\nPor favor digite uma das opções de horário abaixo ou *voltar*:\n\n", dateDisplay)
	for i, t := range times {
		fmt.Fprintf(&b, "*%d* - %s\n", i+1, t)
	}
	return b.String()
}

func confirmationPrompt(temp session.TempData) string {
	return fmt.Sprintf(
		"Confirmar dados\nDATA: %s às %s\nServiço: %s\nPet: %s\nTutor: %s\nProfissional: %s\n\n*1* - Sim\n*2* - Não",
		formatDateBR(temp.Date), temp.Time, temp.ServiceName, temp.PetName, temp.OwnerName, temp.ProfessionalName)
}

func bookingConfirmedMessage(temp session.TempData, appointmentID int64, address string) string {
	return fmt.Sprintf(
		"✅ *Agendamento Confirmado!*\n\n📋 *Detalhes:*\n"+
			"📅 Data: %s\n"+
			"🕐 Horário: %s\n"+
			"🛁 Serviço: %s\n"+
			"🐾 Pet: %s\n"+
			"👤 Tutor: %s\n"+
			"💰 Valor: %s\n"+
			"👩‍⚕️ Profissional: %s\n\n"+
			"📍 *Endereço:*\n%s\n\n"+
			"*Código do agendamento:* #%d\n\n"+
			"Você receberá um lembrete 1 dia antes! 📱",
		formatDateBR(temp.Date), temp.Time, temp.ServiceName, temp.PetName,
		temp.OwnerName, formatPriceBR(temp.ServicePrice), temp.ProfessionalName,
		address, appointmentID)
}

func cancellationListMessage(options []session.CancellationOption) string {
	var b strings.Builder
	b.WriteString("Qual agendamento você gostaria de cancelar?\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "*%d* - *%s*\n", i+1, cancellationLabel(opt))
	}
	b.WriteString("\nDigite o número do agendamento para cancelar.")
	return b.String()
}

func cancellationChosenMessage(opt session.CancellationOption) string {
	return fmt.Sprintf("Você selecionou o agendamento *%s*.\nDigite *1* para confirmar o cancelamento.", cancellationLabel(opt))
}

func cancellationDoneMessage(opt session.CancellationOption) string {
	return fmt.Sprintf("✅ Agendamento *%s* cancelado com sucesso!\n\nDigite *voltar* para retornar ao menu.", cancellationLabel(opt))
}

func cancellationLabel(opt session.CancellationOption) string {
	return fmt.Sprintf("%s - %s - %s às %s", opt.PetName, opt.Service, formatDateBR(opt.Date), opt.Time)
}

// formatDateBR turns YYYY-MM-DD into DD/MM/YYYY. Anything else passes through.
func formatDateBR(date string) string {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return date
	}
	return fmt.Sprintf("%s/%s/%s", parts[2], parts[1], parts[0])
}

// formatPriceBR renders a price the Brazilian way, "R$ 40,00".
func formatPriceBR(price float64) string {
	return "R$ " + strings.ReplaceAll(fmt.Sprintf("%.2f", price), ".", ",")
}

// capitalizeFirst uppercases the first rune and lowercases the rest, matching
// how owner and pet names are normalized before persisting.
func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
