// Package sequence forecasts every weather feature jointly with a small
// recurrent network.
//
// The frame is min-max scaled column by column and cut into windows of
// NSteps days, each paired with the day that follows. The earliest windows
// train a single LSTM layer with a dense head; the chronological tail is the
// validation set used for early stopping and for the reported scores.
// Forecasts are produced recursively: every predicted day is appended to the
// window and the oldest day dropped.
//
//	f, err := sequence.NewForecaster(sequence.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	res, err := f.Run(ctx, frame, 7)
//	if err != nil {
//		return err // *forecast.DataValidationError for unusable input
//	}
//	fmt.Printf("accuracy %.0f%%, val loss %.4f\n", res.Accuracy, *res.ValLoss)
package sequence
