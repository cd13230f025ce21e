package tokens

import (
	"fmt"
	"strings"
)

// ShareLink builds the capability URL a customer receives.
func ShareLink(baseURL, token string) string {
	return strings.TrimSuffix(baseURL, "/") + "/o/" + token
}

// WhatsAppMessage renders the invitation an admin forwards to the
// customer. The copy is customer-facing Turkish.
func WhatsAppMessage(customerName, link string) string {
	return fmt.Sprintf(
		"Merhaba %s,\n\n"+
			"📖 Anı Defteri siparişinizi oluşturmak için aşağıdaki linke tıklayın:\n\n"+
			"%s\n\n"+
			"ℹ️ Bu link size özeldir ve 7 gün boyunca aktiftir.\n\n"+
			"📸 En güzel fotoğraflarınızı ve anılarınızı buradan kolayca yükleyebilirsiniz.\n"+
			"📱 Herhangi bir noktada zorlanırsanız, WhatsApp üzerinden bize yazmanız yeterli. Size yardımcı oluruz.\n\n"+
			"🔒 KVKK Notu: Yüklediğiniz tüm veriler güvenli olarak saklanır ve sadece sipariş işleme amacıyla kullanılır.\n\n"+
			"Teşekkürler! ❤️",
		customerName, link)
}
