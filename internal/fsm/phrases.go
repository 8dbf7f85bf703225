package fsm

import (
	"fmt"

	"github.com/rbright/trustpay/internal/fields"
	"github.com/rbright/trustpay/internal/payment"
)

const (
	phraseWelcome = "Bem-vindo ao TrustPay. Vou guiar sua compra por voz. Diga ajuda a qualquer momento para ouvir os comandos."
	phraseHelp    = "Comandos disponíveis: ajuda, para ouvir esta lista. Voltar, para o campo anterior. " +
		"Corrigir seguido do nome do campo, para alterar um dado. Repetir, para ouvir de novo. " +
		"Cancelar ou nova compra, para recomeçar. Sair, para encerrar."
	phraseFirstField      = "Você já está no primeiro campo."
	phraseYesOrNo         = "Por favor, responda sim ou não."
	phraseRetry           = "Tudo bem, vamos tentar de novo."
	phraseReviewIntro     = "Confira seus dados."
	phraseReviewHelp      = "Diga confirmar para finalizar a compra, corrigir seguido do nome do campo para alterar um dado, ou nova compra para recomeçar."
	phraseWhichField      = "Qual campo você quer corrigir? Por exemplo: nome, e-mail, CPF, cartão, titular, validade ou código de segurança."
	phraseUnknownField    = "Não reconheci esse campo."
	phraseProcessing      = "Processando seu pagamento. Aguarde."
	phraseBusy            = "Seu pagamento está sendo processado. Aguarde um momento."
	phraseSuccessOptions  = "Diga nova compra para começar outra compra, ou sair para encerrar."
	phraseRestarted       = "Compra reiniciada."
	phraseFarewell        = "Obrigado por usar o TrustPay. Até logo."
	phraseRecognizerLost  = "O reconhecimento de voz parou. Reinicie o aplicativo para continuar."
	phraseDeclined        = "O pagamento foi recusado."
	phrasePaymentError    = "Não foi possível processar o pagamento."
	phraseStatusAwaitYes  = "Aguardando confirmação"
	phraseStatusReview    = "Revise seus dados"
	phraseStatusApproved  = "Pagamento aprovado"
	phraseStatusFinished  = "Sessão encerrada"
	phraseStatusCancelled = "Compra cancelada"
)

func stepAnnouncement(step int) string {
	return fmt.Sprintf("Etapa %d de %d: %s.", step, fields.TotalSteps, fields.StepName(step))
}

func notCollectedYet(label string) string {
	return fmt.Sprintf("O campo %s ainda não foi preenchido.", label)
}

func correcting(label string) string {
	return fmt.Sprintf("Vamos corrigir %s.", label)
}

func confirmedAnnouncement(label string) string {
	return fmt.Sprintf("%s confirmado.", label)
}

func missingBeforePayment(label string) string {
	return fmt.Sprintf("Ainda falta preencher %s.", label)
}

func approval(r payment.Receipt) string {
	return fmt.Sprintf("Pagamento aprovado! Valor %s. Código da transação %s, em %s.",
		r.AmountText(), r.TransactionID, r.TimestampText())
}
