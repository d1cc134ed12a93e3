package orders

type texts struct {
	incomplete    string
	unitRequired  string
	confirmed     string
	confirmFailed string
	annulled      string
	annulFailed   string
}

func textsFor(kind Kind) texts {
	if kind == KindPurchase {
		return texts{
			incomplete:    "Debe seleccionar un proveedor y añadir al menos un producto.",
			unitRequired:  "El costo unitario del renglón %d (%s) debe ser mayor a 0.",
			confirmed:     "¡Compra confirmada con éxito! El stock ha sido actualizado.",
			confirmFailed: "Ocurrió un error al procesar la compra.",
			annulled:      "Compra #%d anulada.",
			annulFailed:   "No se pudo anular la compra (puede que ya esté ANULADA)",
		}
	}
	return texts{
		incomplete:    "Agregá productos antes de confirmar.",
		unitRequired:  "El precio unitario del renglón %d (%s) debe ser mayor a 0.",
		confirmed:     "¡Venta confirmada con éxito!",
		confirmFailed: "No se pudo confirmar la venta.",
		annulled:      "Venta #%d anulada.",
		annulFailed:   "No se pudo anular la venta (puede que ya esté ANULADA)",
	}
}
